package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/app"
	"github.com/dropDatabas3/coralbridge/internal/config"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
)

// version se fija con -ldflags "-X main.version=..."
var version = "dev"

// cli es el estado compartido entre comandos.
type cli struct {
	configPath string
	out        string // text | json
	logLevel   string

	cfg    *config.Config
	stdout io.Writer
}

func main() {
	// .env es opcional
	_ = godotenv.Load()

	if err := newRootCmd(&cli{stdout: os.Stdout}).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "coralbridge",
		Short:         "Integración de comentarios Coral: SSO, moderación y comentarios recientes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			cfg.App.Version = version
			if c.logLevel != "" {
				cfg.Log.Level = c.logLevel
			}
			c.cfg = cfg

			encoding := cfg.Log.Encoding
			if encoding == "" && cmd.Name() != "serve" {
				// los comandos escriben su salida en stdout; los logs van en consola
				encoding = "console"
			}
			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				Encoding:    encoding,
				ServiceName: cfg.App.Name,
				Version:     version,
			})
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", envOr("CORALBRIDGE_CONFIG", ""), "Archivo YAML de configuración (env CORALBRIDGE_CONFIG)")
	root.PersistentFlags().StringVar(&c.out, "out", envOr("CORALBRIDGE_OUT", "text"), "Formato de salida: json|text")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Nivel de log (debug|info|warn|error)")

	root.AddCommand(
		newServeCmd(c),
		newSSOCmd(c),
		newTokenCmd(c),
		newModerationCmd(c),
		newCommentsCmd(c),
		newDigestCmd(c),
		newAdminKeyCmd(c),
		newSettingsCmd(c),
		newSecretboxCmd(c),
	)
	return root
}

// container construye las dependencias; el caller debe cerrar.
func (c *cli) container(ctx context.Context) (*app.Container, error) {
	return app.New(ctx, c.cfg)
}

// print escribe v como JSON indentado (--out json) o usa text.
func (c *cli) print(v any, text func(w io.Writer)) {
	if c.out == "json" {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	text(c.stdout)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
