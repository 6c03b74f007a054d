package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/http/dto"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Preferencias coral_* guardadas",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Muestra las preferencias (el token solo como preview)",
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
			view := dto.SettingsFrom(s)
			c.print(view, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "domain\t%s\n", orNone(view.Domain))
				fmt.Fprintf(tw, "sso secret\t%t\n", view.SSOSecretSet)
				fmt.Fprintf(tw, "api token\t%s\n", view.TokenPreview)
				fmt.Fprintf(tw, "token status\t%s\n", view.TokenStatusDetail)
				fmt.Fprintf(tw, "recent limit\t%s\n", view.RecentLimit)
				fmt.Fprintf(tw, "bg color\t%s\n", view.BgColor)
				fmt.Fprintf(tw, "photos\t%s -> %s (default %s)\n", orNone(view.PhotoPath), view.PhotoURL, view.DefaultPhoto)
				fmt.Fprintf(tw, "queue page size\t%d\n", view.QueuePageSize)
				_ = tw.Flush()
			})
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Guarda una preferencia (ej. coral_domain https://talk.example.com)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()
			if err := ct.Settings.Set(ctx, args[0], args[1]); err != nil {
				return err
			}
			c.print(map[string]string{"key": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "%s saved\n", args[0])
			})
			return nil
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "Lista las claves válidas",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.print(settings.Keys, func(w io.Writer) {
				for _, k := range settings.Keys {
					fmt.Fprintln(w, k)
				}
			})
			return nil
		},
	}

	cmd.AddCommand(show, set, keys)
	return cmd
}
