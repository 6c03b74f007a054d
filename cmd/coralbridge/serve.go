package main

import (
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/http/server"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta la API HTTP (embed, comentarios recientes y admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := ct.Close(); err != nil {
					logger.L().Warn("cleanup error", logger.Err(err))
				}
			}()

			logger.L().Info("coralbridge starting",
				logger.String("addr", c.cfg.Server.Addr),
				logger.String("env", c.cfg.App.Env),
			)
			return server.Run(ctx, ct)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (pisa server.addr)")
	return cmd
}
