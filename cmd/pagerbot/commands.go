package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/m3rciful/pagerbot/core/app"
	"github.com/m3rciful/pagerbot/core/buildinfo"
	corecmd "github.com/m3rciful/pagerbot/core/cmd"
	coreconfig "github.com/m3rciful/pagerbot/core/config"
	coredatabase "github.com/m3rciful/pagerbot/core/database"
	"github.com/m3rciful/pagerbot/core/docs"
	"github.com/m3rciful/pagerbot/core/logger"
)

const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pagerbot",
	Short: "Serve paginated documents in chat",
	Long: `pagerbot replies with multi-page documents and lets the user who asked
flip through them with reactions (Discord) or buttons (Telegram).

Without a subcommand it runs the bot for the configured platform.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return corecmd.Run(corecmd.Options{
			ConfigPath:        configPath,
			DefaultConfigPath: defaultConfigPath,
			Bootstrap: func(ctx context.Context, cfg *coreconfig.Config) (corecmd.App, error) {
				return app.Bootstrap(ctx, cfg)
			},
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadWithLogger()
		if err != nil {
			return err
		}
		defer logger.Shutdown()
		return coredatabase.RunMigrations(cfg.Database)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [dir]",
	Short: "Load YAML documents into the database",
	Long: `Load every YAML document of dir into the database, replacing stored
documents with the same name. dir defaults to documents.dir of the config.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadWithLogger()
		if err != nil {
			return err
		}
		defer logger.Shutdown()
		if !cfg.Database.Enabled {
			return errors.New("seed: database.enabled is false")
		}

		dir := cfg.Documents.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		db, err := coredatabase.Connect(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		store := coredatabase.NewStore(db, cfg.Platform)
		return docs.DirSeeder{Dir: dir}.Seed(cmd.Context(), store)
	},
}

var docsCmd = &cobra.Command{
	Use:   "docs [dir]",
	Short: "Validate and list the YAML documents of a directory",
	Long: `Validate and list the YAML documents of dir. dir defaults to
documents.dir of the config, the directory seed reads from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) == 1 {
			dir = args[0]
		} else {
			cfg, err := corecmd.LoadConfig(corecmd.Options{
				ConfigPath:        configPath,
				DefaultConfigPath: defaultConfigPath,
			})
			if err != nil {
				return err
			}
			dir = cfg.Documents.Dir
		}
		loaded, err := docs.LoadDir(dir)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPAGES\tFILES\tTITLE")
		for _, d := range loaded {
			fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Name, len(d.Pages), countFiles(d), d.Title)
		}
		return w.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pagerbot %s (%s) %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or "+defaultConfigPath+")")
	rootCmd.AddCommand(migrateCmd, seedCmd, docsCmd, versionCmd)
}

func loadWithLogger() (*coreconfig.Config, error) {
	cfg, err := corecmd.LoadConfig(corecmd.Options{
		ConfigPath:        configPath,
		DefaultConfigPath: defaultConfigPath,
	})
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func countFiles(d *docs.Document) int {
	n := 0
	for _, f := range d.Files {
		if f != nil {
			n++
		}
	}
	return n
}
