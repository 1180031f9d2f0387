package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/pagelist/internal/app"
	"github.com/charmbracelet/pagelist/internal/config"
	"github.com/charmbracelet/pagelist/internal/db"
	"github.com/charmbracelet/pagelist/internal/log"
	"github.com/charmbracelet/pagelist/internal/version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().StringP("data-dir", "D", "", "Custom pagelist data directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log to stderr instead of the log file")
	rootCmd.Flags().IntP("height", "H", defaultSessionHeight, "Number of rows shown by the session")
	rootCmd.Flags().Bool("diff", false, "Print a diff of the visible rows after every update")

	rootCmd.AddCommand(
		lsCmd,
		addCmd,
		rmCmd,
		seedCmd,
		updateSeedsCmd,
		configCmd,
		sessionCmd,
	)
}

var rootCmd = &cobra.Command{
	Use:   "pagelist",
	Short: "A paged, live-updating list of cheeses",
	Long: `Pagelist keeps a SQLite table of cheeses and shows it through a windowed
loader: rows are read a page at a time, far pages are evicted, and every
change to the table reaches the display as a minimal set of list updates.
Run without a subcommand to start an interactive session.`,
	Example: `
# Start an interactive session
pagelist

# Print the first 50 rows
pagelist ls --limit 50

# Add a cheese
pagelist add "Abbaye de Belloc"
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionCmd(cmd)
	},
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the working directory and loads the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}
	return config.Load(cwd, dataDir, debug)
}

// setupApp loads the configuration, sets up logging, opens the database and
// builds the application.
func setupApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.SetupConsole(cmd.ErrOrStderr(), cfg.Debug)
	} else {
		log.Setup(cfg.LogFile(), cfg.Debug)
	}

	ctx := cmd.Context()
	conn, err := db.Connect(ctx, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	appInstance, err := app.New(ctx, conn, cfg)
	if err != nil {
		conn.Close()
		slog.Error("Failed to create app instance", "error", err)
		return nil, err
	}
	return appInstance, nil
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
