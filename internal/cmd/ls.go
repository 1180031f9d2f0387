package cmd

import (
	"fmt"
	"io"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/pagelist/internal/cheese"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#858392"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B50FF"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#12C78F"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EB4268"))
)

func init() {
	lsCmd.Flags().IntP("offset", "o", 0, "Position of the first row")
	lsCmd.Flags().IntP("limit", "n", 20, "Number of rows to print")
}

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "Print a range of rows",
	Long: `Print a range of rows in display order. Pages are loaded concurrently
through the windowed loader, exactly as the session would read them.`,
	Example: `
# Rows 100 to 119
pagelist ls --offset 100 --limit 20
  `,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")
		if offset < 0 || limit <= 0 {
			return fmt.Errorf("invalid range: offset=%d limit=%d", offset, limit)
		}

		app, err := setupApp(cmd)
		if err != nil {
			return err
		}
		defer app.Shutdown()

		rows, err := app.Pager.LoadRange(cmd.Context(), offset, limit)
		if err != nil {
			return err
		}
		printRows(cmd.OutOrStdout(), offset, rows, app.Pager.TotalCount())
		return nil
	},
}

func printRows(w io.Writer, offset int, rows []cheese.Cheese, total int) {
	width := len(strconv.Itoa(max(offset+len(rows), 1)))
	for i, c := range rows {
		pos := faintStyle.Render(fmt.Sprintf("%*d", width, offset+i))
		id := idStyle.Render("#" + strconv.FormatInt(c.ID, 10))
		lipgloss.Fprintln(w, pos, c.Name, id)
	}
	if len(rows) == 0 {
		lipgloss.Fprintln(w, faintStyle.Render(fmt.Sprintf("No rows at %s of %s", humanize.Comma(int64(offset)), humanize.Comma(int64(total)))))
		return
	}
	lipgloss.Fprintln(w, faintStyle.Render(fmt.Sprintf("%s–%s of %s",
		humanize.Comma(int64(offset+1)),
		humanize.Comma(int64(offset+len(rows))),
		humanize.Comma(int64(total)),
	)))
}
