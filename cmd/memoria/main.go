package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rfcarvalho/memoria/internal/config"
	"github.com/rfcarvalho/memoria/internal/database"
	"github.com/rfcarvalho/memoria/internal/ingest"
	"github.com/rfcarvalho/memoria/internal/server"
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
	Use:     "memoria",
	Short:   "Chat memory processing and search",
	Long:    "Memoria ingests structured chat memory documents, stores them in SQLite, and serves search, statistics, and visualization data over HTTP.",
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
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("memoria", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/memoria/",
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
		fmt.Println("Edit it to configure storage paths and the server port.")
		return nil
	},
}

// --- ingest command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest [file or directory]",
	Short: "Ingest chat memory JSON files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		proc := newProcessor(db)

		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}

		if !info.IsDir() {
			id, err := proc.IngestFile(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Processed %s -> %s\n", args[0], id)
			return nil
		}

		results, err := proc.IngestDir(args[0])
		if err != nil {
			return err
		}

		var ok int
		for _, r := range results {
			if r.Err != nil {
				fmt.Printf("  FAILED %s: %v\n", r.Path, r.Err)
				continue
			}
			fmt.Printf("  %s -> %s\n", r.Path, r.RecordID)
			ok++
		}
		fmt.Printf("\nProcessed %d/%d file(s).\n", ok, len(results))
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		proc := newProcessor(db)
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(cfg, db, proc, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (default from config)")
}

// --- export command ---

var exportPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all records to a CSV file",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		path := exportPath
		if path == "" {
			name := fmt.Sprintf("memorias_export_%s.csv", time.Now().Format("20060102_150405"))
			path = filepath.Join(cfg.GetDataDir(), name)
		}

		n, err := db.ExportAll(path)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d record(s) to %s\n", n, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output CSV path")
}

// --- status command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Memorias:")
		fmt.Printf("  Records: %d\n", stats.TotalMemorias)
		fmt.Printf("  Entities: %d\n", stats.TotalEntities)
		fmt.Printf("  Clusters: %d\n", stats.TotalClusters)
		fmt.Printf("  Messages: %d\n", stats.TotalMessages)

		if len(stats.ModelCounts) > 0 {
			fmt.Println("\nBy model:")
			for model, count := range stats.ModelCounts {
				fmt.Printf("  %s: %d\n", model, count)
			}
		}

		if len(stats.TopTags) > 0 {
			fmt.Println("\nTop tags:")
			for _, tc := range stats.TopTags {
				fmt.Printf("  %s: %d\n", tc.Tag, tc.Count)
			}
		}
		return nil
	},
}

func newProcessor(db *database.DB) *ingest.Processor {
	return ingest.New(db, cfg.GetRecordsDir(), cfg.GetIndexPath())
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.GetDatabasePath())
}
