package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newDigestCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Resumen de colas de moderación por e-mail",
	}

	send := &cobra.Command{
		Use:   "send",
		Short: "Envía el resumen una vez (para cron)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ct, err := c.container(ctx)
			if err != nil {
				return err
			}
			defer ct.Close()

			d, err := ct.Digest()
			if err != nil {
				return err
			}
			s, err := ct.Settings.Load(ctx)
			if err != nil {
				return err
			}
			sent, err := d.Run(ctx, s)
			if err != nil {
				return err
			}
			c.print(map[string]bool{"sent": sent}, func(w io.Writer) {
				if sent {
					fmt.Fprintln(w, "digest sent")
					return
				}
				fmt.Fprintln(w, "nothing pending, digest skipped")
			})
			return nil
		},
	}

	cmd.AddCommand(send)
	return cmd
}
