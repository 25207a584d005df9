// Command import-dataset loads faculty and paper JSON dumps into the registry.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"research-registry-api/config"
	"research-registry-api/models"
	"research-registry-api/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitDryRunEnd = 3
)

// errDryRunComplete marks the controlled abort of a dry run.
var errDryRunComplete = errors.New("dry run complete, rolled back")

type importOptions struct {
	facultyPath string
	papersPath  string
	dryRun      bool
	reset       bool
	max         int
	lockName    string
	trigger     string
	noRecord    bool
}

func main() {
	cmd := newImportCommand(bootstrap, os.Stdout)

	err := cmd.Execute()
	_ = config.Logger.Sync()
	switch {
	case err == nil:
		os.Exit(exitOK)
	case errors.Is(err, errDryRunComplete):
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDryRunEnd)
	default:
		config.Logger.Error("dataset import failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

func bootstrap() services.DatasetImportRunner {
	if _, err := config.Load(); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	config.InitLogging()
	config.InitDB()
	if err := models.AutoMigrate(config.DB); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	return services.NewDatasetImportJobService(config.DB)
}

func newImportCommand(newRunner func() services.DatasetImportRunner, out io.Writer) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import-dataset",
		Short: "Import faculty and paper JSON dumps and link authorships",
		Long: `Import faculty and article records exported from a bibliometric source.

Faculty are upserted by _id, papers by doi (or id), then papers are linked to
faculty by the DOI crosswalk and by faculty_members name matching. The whole
run is one transaction; --dry-run executes every phase and rolls back.

Examples:
  import-dataset --faculty faculty.json --papers articles.json
  import-dataset --faculty faculty.json --papers articles.json --dry-run
  import-dataset --faculty faculty.json --papers articles.json --reset --max 100`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.max < 0 {
				return errors.New("--max must be greater than or equal to 0")
			}
			return runImport(cmd.Context(), newRunner(), opts, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.facultyPath, "faculty", "", "path to the faculty JSON file (required)")
	flags.StringVar(&opts.papersPath, "papers", "", "path to the papers JSON file (required)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "run every phase, then roll back")
	flags.BoolVar(&opts.reset, "reset", false, "delete authorships, papers and faculty before importing (ignored with --dry-run)")
	flags.IntVar(&opts.max, "max", 0, "import at most N papers (0 = all)")
	flags.StringVar(&opts.lockName, "lock-name", services.DefaultDatasetImportLockName, "advisory lock name (empty to disable)")
	flags.StringVar(&opts.trigger, "trigger", "cli", "trigger source label stored in dataset_import_runs")
	flags.BoolVar(&opts.noRecord, "no-record", false, "do not write a dataset_import_runs row")
	_ = cmd.MarkFlagRequired("faculty")
	_ = cmd.MarkFlagRequired("papers")
	return cmd
}

func runImport(ctx context.Context, runner services.DatasetImportRunner, opts *importOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	outcome, err := runner.Run(ctx, &services.DatasetImportInput{
		FacultyPath:   opts.facultyPath,
		PapersPath:    opts.papersPath,
		DryRun:        opts.dryRun,
		Reset:         opts.reset,
		Max:           opts.max,
		LockName:      opts.lockName,
		TriggerSource: opts.trigger,
		RecordRun:     !opts.noRecord && !opts.dryRun,
	})
	if err != nil {
		if errors.Is(err, services.ErrDatasetImportAlreadyRunning) {
			return fmt.Errorf("dataset import already running (advisory lock %q held)", opts.lockName)
		}
		return fmt.Errorf("dataset import failed: %w", err)
	}

	if outcome.Summary.FacultySkipped > 0 || outcome.Summary.PapersSkipped > 0 {
		fmt.Fprintf(out, "skipped: faculty=%d, papers=%d\n", outcome.Summary.FacultySkipped, outcome.Summary.PapersSkipped)
	}
	if outcome.Summary.PapersCutOff > 0 {
		fmt.Fprintf(out, "papers beyond --max: %d\n", outcome.Summary.PapersCutOff)
	}
	if outcome.Kind == services.OutcomeDryRunCompleted {
		fmt.Fprintln(out, outcome.Summary.String())
		return errDryRunComplete
	}
	fmt.Fprintln(out, outcome.Summary.String())
	return nil
}
