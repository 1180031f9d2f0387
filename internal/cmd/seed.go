package cmd

import (
	"cmp"
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/pagelist/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	seedCmd.Flags().BoolP("force", "f", false, "Replace existing rows with the catalog")
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store from the seed catalog",
	Long: `Fill an empty store from the seed catalog. With --force every existing
row is deleted first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		app, err := setupApp(cmd)
		if err != nil {
			return err
		}
		defer app.Shutdown()

		n, err := app.Seed(cmd.Context(), force)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if n == 0 {
			lipgloss.Fprintln(w, faintStyle.Render("The store already has rows. Use --force to replace them."))
			return nil
		}
		lipgloss.Fprintln(w, okStyle.Render("✓"), fmt.Sprintf("Seeded %s cheeses", humanize.Comma(int64(n))))
		return nil
	},
}

var updateSeedsCmd = &cobra.Command{
	Use:   "update-seeds [path-or-url]",
	Short: "Update the seed catalog",
	Long: `Update the cached seed catalog from the specified local path or remote URL.
Set it to "embedded" to reset to the catalog bundled with pagelist.`,
	Example: `
# Fetch the catalog from $PAGELIST_SEEDS_URL, or reset to the embedded one
pagelist update-seeds

# Load from a local file
pagelist update-seeds /path/to/seeds.json

# Reset to the embedded catalog
pagelist update-seeds embedded
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pathOrURL string
		if len(args) > 0 {
			pathOrURL = args[0]
		}
		if err := config.UpdateSeeds(cmd.Context(), pathOrURL); err != nil {
			return err
		}

		lipgloss.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓"), "Seed catalog updated from",
			cmp.Or(pathOrURL, "the default source"))
		return nil
	},
}
