package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/de-tools/aws-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/aws-atlas/pkg/services/config"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb"
	"github.com/de-tools/aws-atlas/pkg/store/duckdb/inventory"
	"github.com/spf13/cobra"
)

type ProfilesCmd struct {
	configPath      string
	credentialsPath string
	reporter        *export.Reporter
}

func NewProfilesCmd(reporter *export.Reporter) *cobra.Command {
	configPath, credentialsPath := config.DefaultPaths()
	pc := &ProfilesCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List AWS profiles from the shared config and credentials files",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.configPath, "aws-config", configPath, "Path to the AWS config file")
	cmd.Flags().StringVar(&pc.credentialsPath, "aws-credentials", credentialsPath, "Path to the AWS credentials file")

	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry, err := config.NewRegistry(ctx, pc.configPath, pc.credentialsPath)
	if err != nil {
		return fmt.Errorf("failed to create config registry: %w", err)
	}
	profiles, err := registry.GetProfiles(ctx)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No AWS profiles found")
		return nil
	}

	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{p.Name, string(p.Type), p.Region})
	}
	return pc.reporter.Table([]string{"Profile", "Type", "Region"}, rows)
}

func NewKindsCmd(reporter *export.Reporter) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List supported resource kinds and their CloudFormation types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := domain.KindInfos()
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{string(info.Kind), info.CFNType, info.Dir})
			}
			return reporter.Table([]string{"Kind", "CloudFormation type", "Directory"}, rows)
		},
	}
}

type RunsCmd struct {
	dbPath   string
	reporter *export.Reporter
}

func NewRunsCmd(reporter *export.Reporter) *cobra.Command {
	rc := &RunsCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs saved in a DuckDB inventory",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.dbPath, "db", "", "Path to the DuckDB inventory")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func (rc *RunsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: rc.dbPath})
	if err != nil {
		return fmt.Errorf("failed to open inventory: %w", err)
	}
	defer db.Close()

	store, err := inventory.NewStore(db)
	if err != nil {
		return err
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs found in %s\n", rc.dbPath)
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.CreatedAt.Local().Format(time.DateTime),
			run.Source,
			strings.TrimSpace(run.Profile + " " + run.Region),
			fmt.Sprint(run.Resources),
			fmt.Sprint(run.Edges),
		})
	}
	return rc.reporter.Table([]string{"Run", "Created", "Source", "Profile/Region", "Resources", "Edges"}, rows)
}
