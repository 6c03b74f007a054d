package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/comments"
)

func newCommentsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Comentarios publicados",
	}

	var limit string
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Lista los comentarios más recientes",
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
			raw := s.Display.RecentLimit
			if cmd.Flags().Changed("limit") {
				raw = limit
			}
			list := ct.Comments.FetchRecent(ctx, s, comments.ParseLimit(raw))
			c.print(list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintln(w, "no comments")
					return
				}
				for _, cm := range list {
					fmt.Fprintf(w, "%s · %s · %s\n  %s\n  %s\n", cm.Username, cm.Date, humanize.Time(cm.CreatedAt), cm.Body, cm.StoryURL)
				}
			})
			return nil
		},
	}
	recent.Flags().StringVar(&limit, "limit", "", "Cantidad máxima (vacío = la guardada)")

	cmd.AddCommand(recent)
	return cmd
}
