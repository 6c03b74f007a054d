package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/provisioning"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

func newTokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Token de API de Coral (aprovisionar, revocar, estado)",
	}

	var req provisioning.Request
	var passwordStdin bool
	provision := &cobra.Command{
		Use:   "provision",
		Short: "Crea un token de API con credenciales de un admin de Coral",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				req.Password = strings.TrimRight(line, "\r\n")
			}
			if req.Password == "" {
				req.Password = os.Getenv("CORAL_PASSWORD")
			}

			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()

			res, err := ct.Provisioning.Provision(ctx, req)
			if err != nil {
				var pe *provisioning.Error
				if errors.As(err, &pe) && pe.Detail != "" {
					return fmt.Errorf("%s: %s", pe.Status.Describe(), pe.Detail)
				}
				if errors.As(err, &pe) {
					return errors.New(pe.Status.Describe())
				}
				return err
			}
			preview := settings.Settings{APIToken: res.Token}.TokenPreview()
			c.print(map[string]string{"status": string(res.Status), "token_preview": preview}, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s\n", res.Status.Describe(), preview)
			})
			return nil
		},
	}
	provision.Flags().StringVar(&req.Domain, "domain", "", "URL de Coral (vacío = la guardada)")
	provision.Flags().StringVar(&req.Email, "email", "", "E-mail del admin de Coral")
	provision.Flags().StringVar(&req.Password, "password", "", "Contraseña (mejor: --password-stdin o env CORAL_PASSWORD)")
	provision.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Lee la contraseña de stdin")

	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Borra el token guardado (no lo invalida en Coral)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()
			if err := ct.Provisioning.Revoke(ctx); err != nil {
				return err
			}
			c.print(map[string]string{"status": string(settings.StatusRevoked)}, func(w io.Writer) {
				fmt.Fprintln(w, settings.StatusRevoked.Describe())
			})
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Muestra el estado del token y su preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()
			s, err := ct.Settings.Load(ctx)
			if err != nil {
				return err
			}
			c.print(map[string]string{
				"domain":        s.Domain,
				"status":        string(s.TokenStatus),
				"token_preview": s.TokenPreview(),
			}, func(w io.Writer) {
				fmt.Fprintf(w, "domain: %s\nstatus: %s\ntoken:  %s\n", orNone(s.Domain), s.TokenStatus.Describe(), s.TokenPreview())
			})
			return nil
		},
	}

	cmd.AddCommand(provision, revoke, status)
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
