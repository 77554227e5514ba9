package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/de-tools/aws-atlas/pkg/emitters"
	"github.com/de-tools/aws-atlas/pkg/server"
	"github.com/de-tools/aws-atlas/pkg/services/explorer"
	"github.com/de-tools/aws-atlas/pkg/services/layout"
	"github.com/de-tools/aws-atlas/pkg/services/pipeline"
	"github.com/de-tools/aws-atlas/pkg/services/workflow"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb/inventory"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	snapshotDir     string
	dbPath          string
	runID           string
	mergeThreshold  int
	showAttachments bool
	refresh         time.Duration
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Serve an AWS architecture diagram over HTTP",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVar(&snapshotDir, "from-cf", "", "Serve the CloudFormation snapshot in this directory")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "DuckDB inventory backing /runs, and the diagram when --run is set")
	rootCmd.Flags().StringVar(&runID, "run", "", "Inventory run to serve")
	rootCmd.Flags().IntVar(&mergeThreshold, "merge-threshold", layout.DefaultMergeThreshold, "Merge same-kind siblings at this count")
	rootCmd.Flags().BoolVar(&showAttachments, "show-attachments", false, "Draw ATTACHED_TO connectors")
	rootCmd.Flags().DurationVar(&refresh, "refresh", 0, "Reload the source at this interval (0 disables)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if snapshotDir == "" {
		snapshotDir = os.Getenv("SNAPSHOT_DIR")
	}

	var store inventory.Store
	if dbPath != "" {
		db, err := duckdb.NewDB(duckdb.Settings{DbPath: dbPath})
		if err != nil {
			return fmt.Errorf("failed to create DuckDB instance: %w", err)
		}
		defer db.Close()

		store, err = inventory.NewStore(db)
		if err != nil {
			return fmt.Errorf("failed to create inventory store: %w", err)
		}
	}

	var source pipeline.Source
	switch {
	case snapshotDir != "" && runID != "":
		return errors.New("--from-cf and --run cannot be used together")
	case snapshotDir != "":
		source = pipeline.NewSnapshotSource(snapshotDir)
	case runID != "":
		if store == nil {
			return errors.New("--run requires --db")
		}
		source = pipeline.NewInventorySource(store, runID)
	default:
		return errors.New("either --from-cf (or SNAPSHOT_DIR) or --db with --run is required")
	}

	exp := explorer.NewExplorer(source, pipeline.Options{
		MergeThreshold:  mergeThreshold,
		ShowAttachments: showAttachments,
	})
	if err := exp.Reload(logger.WithContext(cmd.Context())); err != nil {
		return err
	}
	logger.Info().Str("source", source.Name()).Msg("inventory loaded")

	if refresh > 0 {
		ctx, cancel := context.WithCancel(logger.WithContext(cmd.Context()))
		defer cancel()
		runner := workflow.NewRunner(exp, workflow.RunnerConfig{Interval: refresh})
		go runner.Run(ctx)
	}

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		return errors.New("SERVER_HOST and SERVER_PORT must be set")
	}

	api := server.NewWebAPI(logger, server.Config{
		Addr:            net.JoinHostPort(host, port),
		ShutdownTimeout: 10 * time.Second,
		Dependencies: server.Dependencies{
			Explorer:  exp,
			Emitters:  emitters.Default(),
			Inventory: store,
		},
	})

	return api.Start()
}
