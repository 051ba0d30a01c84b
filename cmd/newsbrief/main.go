package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"newsbrief/internal/catalog"
	"newsbrief/internal/collect"
	"newsbrief/internal/config"
	"newsbrief/internal/pipeline"
	"newsbrief/internal/verify"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "newsbrief",
	Short:   "Daily news briefings",
	Long:    "Newsbrief collects, dedups, analyzes, and ranks news from RSS and Atom feeds into a daily briefing.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statusCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("newsbrief", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/newsbrief/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds and the analyzer API key.")
		return nil
	},
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect articles from configured feeds without analyzing them",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Collecting from %d feeds...\n", cfg.FeedCount())

		agg := collect.NewAggregator(cfg, nil)
		result := agg.Collect(context.Background())

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Articles kept: %d\n", len(result.Articles))
		fmt.Printf("  Endpoints: %d (%d failed)\n", result.Endpoints, result.Failed)
		fmt.Printf("  Dropped (duplicate, stale, or capped): %d\n", result.Dropped)

		counts := make(map[string]int)
		for _, a := range result.Articles {
			counts[a.Source]++
		}
		if len(counts) > 0 {
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range counts {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			fmt.Println("\nArticles by source:")
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- run command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: collect -> enrich -> rank -> report",
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe := pipeline.New(cfg, nil)
		result := pipe.Run(context.Background())

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("pipeline finished with errors")
		}
		fmt.Printf("\nPipeline complete! Report: %s\n", result.Paths.HTML)
		return nil
	},
}

// --- verify command ---

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every configured feed is reachable and serves XML",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoints := collect.NewAggregator(cfg, nil).Registry()
		fmt.Printf("Verifying %d feeds...\n\n", len(endpoints))

		checker := verify.NewChecker(nil)
		results := checker.CheckAll(context.Background(), endpoints)

		for _, r := range results {
			mark := "ok  "
			if !r.OK {
				mark = "FAIL"
			}
			fmt.Printf("  [%s] %-13s %s", mark, r.Endpoint.Category, r.Endpoint.URL)
			if !r.OK {
				fmt.Printf("  (%s)", r.Reason)
			}
			fmt.Println()
		}

		valid := verify.CountValid(results)
		fmt.Printf("\n%d of %d feeds valid\n", valid, len(results))
		if valid < len(results) {
			return fmt.Errorf("%d feeds failed verification", len(results)-valid)
		}
		return nil
	},
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show report catalog status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := catalog.Open(filepath.Join(cfg.GetDataDir(), "catalog.db"))
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("Data directory: %s\n\n", cfg.GetDataDir())
		fmt.Printf("Reports: %d\n", stats.ReportCount)
		fmt.Printf("Articles recorded: %d\n", stats.ArticleTotal)
		if stats.LatestDate != "" {
			fmt.Printf("Latest report: %s (%d articles)\n", stats.LatestDate, stats.LatestArticle)
		}

		entries, err := db.List()
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			fmt.Println("\nRecent reports:")
			for i, e := range entries {
				if i >= 10 {
					break
				}
				fmt.Printf("  %s  %3d articles  %s\n", e.Date, e.ArticleCount, e.HTMLPath)
			}
		}
		return nil
	},
}
