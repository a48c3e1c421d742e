package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/survey-extractor/constants"
	"github.com/joseph-ayodele/survey-extractor/internal/common"
	"github.com/joseph-ayodele/survey-extractor/internal/entity"
	"github.com/joseph-ayodele/survey-extractor/internal/ingest"
	"github.com/joseph-ayodele/survey-extractor/internal/pipeline"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Build applies the schema
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", a.DB.Dialect())
			return nil
		},
	}
}

func newDBCmd() *cobra.Command {
	db := &cobra.Command{Use: "db", Short: "Database utilities"}

	var timeout time.Duration
	health := &cobra.Command{
		Use:   "health",
		Short: "Ping the database and count jobs per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.DB.HealthCheck(cmd.Context(), timeout); err != nil {
				return fmt.Errorf("db health: FAIL (%w)", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "db health: OK (%s)\n", a.DB.Dialect())
			for _, st := range []constants.JobStatus{
				constants.JobStatusPending,
				constants.JobStatusProcessing,
				constants.JobStatusCompleted,
				constants.JobStatusFailed,
			} {
				jobs, err := a.Jobs.ListByStatus(cmd.Context(), st, 0)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "- %-10s %d\n", st, len(jobs))
			}
			return nil
		},
	}
	health.Flags().DurationVar(&timeout, "timeout", time.Second, "ping timeout")
	db.AddCommand(health)
	return db
}

func newJobCmd() *cobra.Command {
	job := &cobra.Command{Use: "job", Short: "Manage extraction jobs"}

	var course, file, owner string
	var process bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a pending job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			j := entity.NewExtractionJob(course, file, owner)
			if err := a.Jobs.Create(cmd.Context(), j); err != nil {
				return err
			}
			if !process {
				return printJSON(cmd.OutOrStdout(), j)
			}
			res, err := a.Processor.Process(cmd.Context(), j.ID)
			if perr := printJSON(cmd.OutOrStdout(), runOutput{JobID: j.ID.String(), Result: res}); perr != nil {
				return perr
			}
			return err
		},
	}
	create.Flags().StringVar(&course, "course", "", "course name")
	create.Flags().StringVar(&file, "file", "", "file reference: path, file://, http(s):// or s3://bucket/key")
	create.Flags().StringVar(&owner, "owner", "", "creator id; selects the LLM settings")
	create.Flags().BoolVar(&process, "process", false, "run the job right away")
	_ = create.MarkFlagRequired("course")
	_ = create.MarkFlagRequired("file")
	_ = create.MarkFlagRequired("owner")

	get := &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			j, err := a.Jobs.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), j)
		},
	}

	job.AddCommand(create, get)
	return job
}

type runOutput struct {
	JobID string `json:"job_id"`
	pipeline.Result
}

func newRunCmd(use, short string, retry bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <job-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			run := a.Processor.Process
			if retry {
				run = a.Processor.Retry
			}
			res, err := run(cmd.Context(), id)
			if perr := printJSON(cmd.OutOrStdout(), runOutput{JobID: id.String(), Result: res}); perr != nil {
				return perr
			}
			return err
		},
	}
}

func newResponsesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "responses <job-id>",
		Short: "Print a job's responses as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			rs, err := a.Responses.ListByJob(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rs)
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <job-id>",
		Short: "Write a job's responses to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.Exporter.ExportJobXLSX(cmd.Context(), id)
			if err != nil {
				return err
			}
			if out == "" {
				out = "survey-" + id.String() + ".xlsx"
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default survey-<job-id>.xlsx)")
	return cmd
}

func newSettingsCmd() *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Manage per-owner LLM settings"}

	var apiKey, model string
	var enabled bool
	set := &cobra.Command{
		Use:   "set <owner-id>",
		Short: "Create or replace an owner's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			s := &entity.ExtractionSettings{OwnerID: args[0], APIKey: apiKey, ModelName: model, Enabled: enabled}
			if !cmd.Flags().Changed("api-key") {
				cur, err := a.Settings.GetByOwner(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if cur != nil {
					s.APIKey = cur.APIKey
				}
			}
			if err := a.Settings.Upsert(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "settings saved for %s (enabled=%t, api key present=%t)\n", s.OwnerID, s.Enabled, s.APIKey != "")
			return nil
		},
	}
	set.Flags().StringVar(&apiKey, "api-key", "", "API key; omit to keep the stored one")
	set.Flags().StringVar(&model, "model", "", "model name; empty uses the deployment default")
	set.Flags().BoolVar(&enabled, "enabled", true, "enable LLM extraction")

	settings.AddCommand(set)
	return settings
}

func newIngestCmd() *cobra.Command {
	var owner string
	var process, skipHidden bool
	cmd := &cobra.Command{
		Use:   "ingest <dir>",
		Short: "Create a job for every survey file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			in := ingest.NewIngestor(a.Jobs, nil, owner, a.Logger)
			results, stats, err := in.IngestDirectory(cmd.Context(), args[0], skipHidden)
			if err != nil {
				return err
			}
			if process {
				for _, r := range results {
					if r.Err != "" || r.Deduplicated {
						continue
					}
					id := uuid.MustParse(r.JobID)
					if _, err := a.Processor.Process(cmd.Context(), id); err != nil {
						a.Logger.Warn("ingest.process.failed", "job_id", id, "path", r.SourcePath, "error", err)
					}
				}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"results": results, "stats": stats})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "creator id assigned to the jobs")
	cmd.Flags().BoolVar(&process, "process", false, "run each new job after creating it")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "skip dot files and directories")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

// newExtractCmd runs one file through the whole pipeline against a private
// in-memory database and prints the responses.
func newExtractCmd() *cobra.Command {
	var course, apiKey, model string
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Dry run: extract responses from a file without touching any database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, func(c *common.Config) {
				c.Database.DSN = "sqlite::memory:"
				if apiKey != "" {
					c.LLM.APIKey = apiKey
				}
				if model != "" {
					c.LLM.Model = model
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			const owner = "surveyctl"
			if err := a.Settings.Upsert(ctx, &entity.ExtractionSettings{
				OwnerID: owner,
				Enabled: a.Config.LLM.APIKey != "",
			}); err != nil {
				return err
			}
			if course == "" {
				course = ingest.CourseFromPath(args[0])
			}
			if course == "" {
				course = "untitled"
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			j := entity.NewExtractionJob(course, path, owner)
			if err := a.Jobs.Create(ctx, j); err != nil {
				return err
			}
			res, err := a.Processor.Process(ctx, j.ID)
			if err != nil {
				return err
			}
			rs, err := a.Responses.ListByJob(ctx, j.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"result":    res,
				"responses": rs,
			})
		},
	}
	cmd.Flags().StringVar(&course, "course", "", "course name (default: derived from the file name)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key; without one only heuristics run")
	cmd.Flags().StringVar(&model, "model", "", "model name")
	return cmd
}

func parseJobID(s string) (uuid.UUID, error) {
	if v := common.NewValidator().Field("job-id", s, common.UUID); v.HasErrors() {
		return uuid.Nil, v.Err()
	}
	return uuid.MustParse(s), nil
}
