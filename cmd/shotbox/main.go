package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amarchal/shotbox/internal/api"
	"github.com/amarchal/shotbox/internal/catalog"
	"github.com/amarchal/shotbox/internal/classifier"
	"github.com/amarchal/shotbox/internal/config"
	"github.com/amarchal/shotbox/internal/pipeline"
	"github.com/amarchal/shotbox/internal/processed"
	"github.com/amarchal/shotbox/internal/research"
	"github.com/amarchal/shotbox/internal/router"
	"github.com/amarchal/shotbox/internal/vault"
	"github.com/amarchal/shotbox/internal/watch"
)

var (
	configPath string
	vaultRoot  string
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shotbox",
		Short: "Screenshot ingestion for a PARA knowledge vault",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&vaultRoot, "vault", "", "vault root (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if vaultRoot != "" {
		if abs, err := filepath.Abs(vaultRoot); err == nil {
			cfg.VaultRoot = abs
		} else {
			cfg.VaultRoot = vaultRoot
		}
	}
	if debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// runtime bundles everything a pipeline run needs.
type runtime struct {
	logger   *zap.Logger
	pipeline *pipeline.Pipeline
	watchDir string
	catalog  *catalog.Catalog // nil in dry-run
}

func (r *runtime) close() {
	if r.catalog != nil {
		r.catalog.Close()
	}
	_ = r.logger.Sync()
}

func buildRuntime(dryRun bool) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	v := vault.New(cfg.VaultRoot, cfg.Folders)
	if err := v.EnsureLayout(); err != nil {
		return nil, err
	}

	set, err := processed.Load(v.Abs(filepath.Join(v.StateDir(), "processed.json")))
	if err != nil {
		return nil, err
	}

	client, err := classifier.New(cfg.Provider)
	if err != nil {
		return nil, err
	}

	var enricher pipeline.Enricher
	if cfg.Research.EnabledOrDefault() {
		enricher = research.New(client, research.NewBrave(),
			cfg.Research.MaxResults, cfg.Research.RelevanceThreshold, logger)
	}

	var cat *catalog.Catalog
	var recorder pipeline.Recorder
	if !dryRun {
		cat, err = catalog.Open(v.Abs(filepath.Join(v.StateDir(), "catalog.db")))
		if err != nil {
			return nil, err
		}
		recorder = cat
	}

	watchDir := cfg.WatchDir
	if watchDir == "" {
		watchDir = v.Abs(v.ScreenshotsDir())
	}

	p := pipeline.New(pipeline.Config{
		Vault:      v,
		Processed:  set,
		Classifier: client,
		Enricher:   enricher,
		Router:     router.New(cfg.ConfidenceThreshold),
		Catalog:    recorder,
		Logger:     logger,
		DryRun:     dryRun,
	})

	return &runtime{
		logger:   logger,
		pipeline: p,
		watchDir: watchDir,
		catalog:  cat,
	}, nil
}

func ingestCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process new screenshots in the watched folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(dryRun)
			if err != nil {
				return err
			}
			defer rt.close()

			summary, err := rt.pipeline.Run(rt.watchDir)
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Println("(dry run: nothing was written)")
			}
			fmt.Printf("Discovered %d, processed %d, failed %d\n",
				summary.Discovered, summary.Processed, summary.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the pipeline without writing anything")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep ingesting as screenshots arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := buildRuntime(false)
			if err != nil {
				return err
			}
			defer rt.close()

			runner := watch.New(rt.watchDir, func() {
				if _, err := rt.pipeline.Run(rt.watchDir); err != nil {
					rt.logger.Error("ingest pass failed", zap.Error(err))
				}
			}, rt.logger)

			stop := make(chan struct{})
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sig
				rt.logger.Info("shutting down")
				close(stop)
			}()

			fmt.Printf("Watching %s\n", rt.watchDir)
			return runner.Start(stop)
		},
	}
}

func openCatalog() (*catalog.Catalog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	v := vault.New(cfg.VaultRoot, cfg.Folders)
	return catalog.Open(v.Abs(filepath.Join(v.StateDir(), "catalog.db")))
}

func listCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently ingested notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCatalog()
			if err != nil {
				return err
			}
			defer c.Close()

			notes, err := c.List(limit)
			if err != nil {
				return err
			}

			if len(notes) == 0 {
				fmt.Println("No notes yet. Use 'shotbox ingest' to process screenshots.")
				return nil
			}

			for _, n := range notes {
				fmt.Printf("%s  %-12s  %s\n", n.ID[:8], n.Category, truncate(n.Title, 60))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of notes to show")
	return cmd
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search ingested notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCatalog()
			if err != nil {
				return err
			}
			defer c.Close()

			notes, err := c.Search(args[0])
			if err != nil {
				return err
			}

			if len(notes) == 0 {
				fmt.Println("No matching notes found.")
				return nil
			}

			for _, n := range notes {
				fmt.Printf("%s  %s\n", n.ID[:8], truncate(n.Title, 60))
				fmt.Printf("          %s  [%s]\n", n.NotePath, strings.Join(n.Tags, ", "))
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the catalog REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			c, err := openCatalog()
			if err != nil {
				return err
			}
			// Note: don't defer c.Close() as server runs indefinitely

			server := api.New(c, addr, logger)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
