package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/coralbridge/internal/comments"
	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/moderation"
)

func newModerationCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moderation",
		Short: "Colas de moderación y decisiones",
	}

	queues := &cobra.Command{
		Use:   "queues",
		Short: "Lista las colas pendientes y reportadas",
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
			q, err := ct.Moderation.FetchQueues(ctx, s)
			if err != nil {
				return err
			}
			c.print(q, func(w io.Writer) {
				printQueue(w, "Pending", q.Unmoderated)
				fmt.Fprintln(w)
				printQueue(w, "Reported", q.Reported)
			})
			return nil
		},
	}

	cmd.AddCommand(queues, newDecisionCmd(c, moderation.Approve), newDecisionCmd(c, moderation.Reject))
	return cmd
}

func newDecisionCmd(c *cli, action moderation.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <comment-id> <revision-id>",
		Short: "Aplica " + string(action) + " a una revisión de un comentario",
		Args:  cobra.ExactArgs(2),
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
			out, err := ct.Moderation.Decide(ctx, s, moderation.Decision{
				Action:     action,
				CommentID:  args[0],
				RevisionID: args[1],
			})
			if err != nil {
				return err
			}
			c.print(out, func(w io.Writer) {
				fmt.Fprintf(w, "%s %s: %s\n", out.Action, out.CommentID, out.Status)
			})
			return nil
		},
	}
}

func printQueue(w io.Writer, title string, q moderation.Queue) {
	fmt.Fprintf(w, "%s (%s)\n", title, humanize.Comma(int64(q.Count)))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, it := range q.Items {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			it.ID, it.RevisionID(), it.Username(), humanize.Time(it.CreatedAt), excerpt(it))
	}
	_ = tw.Flush()
}

func excerpt(it coral.Comment) string {
	return coral.Truncate(comments.StripHTML(it.Body), 60)
}
