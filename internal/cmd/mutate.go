package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/pagelist/internal/app"
	"github.com/charmbracelet/pagelist/internal/cheese"
	"github.com/charmbracelet/pagelist/internal/gateway"
	"github.com/charmbracelet/pagelist/internal/pubsub"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add NAME...",
	Short: "Add cheeses",
	Long:  `Add one cheese per argument. Names are trimmed; blank names are rejected.`,
	Example: `
pagelist add Brie Cheddar "Abbaye de Belloc"
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mutate(cmd, len(args), func(a *app.App) {
			for _, name := range args {
				a.Mutations.Insert(cheese.Cheese{Name: name})
			}
		})
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm ID...",
	Aliases: []string{"delete"},
	Short:   "Delete cheeses by ID",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, len(args))
		for i, arg := range args {
			id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", arg, err)
			}
			ids[i] = id
		}
		return mutate(cmd, len(ids), func(a *app.App) {
			for _, id := range ids {
				a.Mutations.Delete(id)
			}
		})
	},
}

// mutate queues n mutations through the gateway and reports each result.
func mutate(cmd *cobra.Command, n int, queue func(*app.App)) error {
	a, err := setupApp(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	results := a.Mutations.Subscribe(ctx)
	queue(a)

	var failed int
	for range n {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-results:
			if !ok {
				return gateway.ErrClosed
			}
			if !printResult(cmd.OutOrStdout(), evt) {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d mutations failed", failed, n)
	}
	return nil
}

// printResult writes one line for a mutation result and reports whether it
// succeeded.
func printResult(w io.Writer, evt pubsub.Event[gateway.Result]) bool {
	res := evt.Payload
	ticket := faintStyle.Render(shortID(res.ID))
	switch {
	case res.Err != nil:
		lipgloss.Fprintln(w, errStyle.Render("✗"), ticket, res.Err.Error())
		return false
	case res.RefreshErr != nil:
		lipgloss.Fprintln(w, okStyle.Render("✓"), ticket, string(res.Op), faintStyle.Render("(refresh failed: "+res.RefreshErr.Error()+")"))
	default:
		lipgloss.Fprintln(w, okStyle.Render("✓"), ticket, string(res.Op))
	}
	return true
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
