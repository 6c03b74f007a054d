package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/sso"
)

func newSSOCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sso",
		Short: "Tokens SSO para el embed de Coral",
	}

	var u sso.User
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Firma un token SSO con la clave guardada",
		RunE: func(cmd *cobra.Command, args []string) error {
			if u.ID == "" {
				return errors.New("--id es requerido")
			}
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
			tok, err := ct.Signer.Issue(sso.ResolveSecret(s.SSOSecret), u)
			if err != nil {
				return err
			}
			c.print(map[string]string{"token": tok}, func(w io.Writer) { fmt.Fprintln(w, tok) })
			return nil
		},
	}
	issue.Flags().StringVar(&u.ID, "id", "", "ID del usuario en el sitio")
	issue.Flags().StringVar(&u.Email, "email", "", "E-mail del usuario")
	issue.Flags().StringVar(&u.Username, "username", "", "Nombre visible")

	verify := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verifica un token SSO contra la clave guardada",
		Args:  cobra.ExactArgs(1),
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
			claims, err := sso.Verify(sso.ResolveSecret(s.SSOSecret), args[0])
			if err != nil {
				return err
			}
			c.print(claims, func(w io.Writer) {
				fmt.Fprintf(w, "user:     %s <%s> (%s)\n", claims.User.ID, claims.User.Email, claims.User.Username)
				fmt.Fprintf(w, "jti:      %s\n", claims.ID)
				if claims.ExpiresAt != nil {
					fmt.Fprintf(w, "expires:  %s (%s)\n", claims.ExpiresAt.Time.Format(time.RFC3339), humanize.Time(claims.ExpiresAt.Time))
				}
			})
			return nil
		},
	}

	cmd.AddCommand(issue, verify)
	return cmd
}
