package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/rep-ingest/internal/fetcher"
	"github.com/sells-group/rep-ingest/internal/fixture"
	"github.com/sells-group/rep-ingest/internal/pipeline"
)

var (
	ingestZIP     string
	ingestZIPFile string
	ingestDemo    bool
	ingestMigrate bool
)

var (
	errNoMode      = errors.New("ingest: one of --zip, --zip-file or --demo is required")
	errInterrupted = errors.New("ingest: interrupted")
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest representatives for one ZIP code, a file of ZIP codes, or the demo set",
	Example: `  rep-ingest ingest --zip 11354
  rep-ingest ingest --zip-file zips.txt -v
  rep-ingest ingest --demo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		zips, err := selectZIPs(ingestOptions{
			ZIP:      ingestZIP,
			ZIPFile:  ingestZIPFile,
			Demo:     ingestDemo,
			Fixtures: cfg.Fixtures.Path,
		})
		if errors.Is(err, errNoMode) {
			_ = cmd.Help()
			return err
		}
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, cfg, "ingest", ingestMigrate)
		if err != nil {
			return err
		}
		defer env.Close()

		return runIngest(ctx, cmd, env.Orchestrator, zips)
	},
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestZIP, "zip", "z", "", "single ZIP code to process")
	ingestCmd.Flags().StringVarP(&ingestZIPFile, "zip-file", "f", "", "newline-delimited (or .xlsx first-column) list of ZIP codes")
	ingestCmd.Flags().BoolVarP(&ingestDemo, "demo", "d", false, "process the built-in demo ZIP codes")
	ingestCmd.Flags().BoolVar(&ingestMigrate, "migrate", true, "create tables before ingesting")
	ingestCmd.MarkFlagsMutuallyExclusive("zip", "zip-file", "demo")
	rootCmd.AddCommand(ingestCmd)
}

type ingestOptions struct {
	ZIP      string
	ZIPFile  string
	Demo     bool
	Fixtures string
}

// selectZIPs returns the ZIP codes for the selected mode. Exactly one mode
// must be set.
func selectZIPs(o ingestOptions) ([]string, error) {
	switch {
	case o.ZIP != "":
		return []string{o.ZIP}, nil
	case o.ZIPFile != "":
		zips, err := fetcher.ReadZIPList(o.ZIPFile)
		if fetcher.IsListNotFound(err) {
			return nil, eris.Wrapf(err, "ingest: file %s not found", o.ZIPFile)
		}
		return zips, err
	case o.Demo:
		set, err := fixture.Load(o.Fixtures)
		if err != nil {
			return nil, err
		}
		return set.DemoZIPs(), nil
	default:
		return nil, errNoMode
	}
}

func runIngest(ctx context.Context, cmd *cobra.Command, o *pipeline.Orchestrator, zips []string) error {
	out := cmd.OutOrStdout()
	if len(zips) == 1 {
		fmt.Fprintf(out, "Processing ZIP code: %s\n", zips[0])
	} else {
		fmt.Fprintf(out, "Processing %d ZIP codes\n", len(zips))
	}

	b := o.ProcessBatch(ctx, zips, pipeline.BatchOptions{
		Pause:       cfg.Batch.Pause(),
		Concurrency: cfg.Batch.Concurrency,
	})
	if err := pipeline.WriteReport(out, b, verbose); err != nil {
		return eris.Wrap(err, "ingest: write report")
	}

	if b.Interrupted {
		fmt.Fprintln(cmd.ErrOrStderr(), "\nIngestion interrupted by user")
		zap.L().Warn("ingest: interrupted", zap.String("run_id", b.RunID))
		return errInterrupted
	}
	return nil
}
