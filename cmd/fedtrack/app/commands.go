package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/fedtrack"
	"github.com/agentstation/fedtrack/internal/cmd/output"
	"github.com/agentstation/fedtrack/pkg/artifacts"
	"github.com/agentstation/fedtrack/pkg/events"
	"github.com/agentstation/fedtrack/pkg/logging"
	"github.com/agentstation/fedtrack/pkg/reconciler"
)

// buildFlags are the per-run overrides of the build and validate commands.
type buildFlags struct {
	manifest        string
	dataDir         string
	outDir          string
	seed            string
	cutoff          int
	workers         int
	metricsTextfile string
	dryRun          bool
	indent          bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "run manifest file (default: built-in generations)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "directory holding the source extracts")
	cmd.Flags().IntVar(&f.cutoff, "cutoff", 0, "last month (YYYYMM) owned by the legacy generation")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "number of source files read in parallel")
	cmd.Flags().StringVar(&f.seed, "seed", "", "agency-list.json used to seed display names")
}

// apply copies the flags the user set onto the configuration.
func (f *buildFlags) apply(cmd *cobra.Command, c *Config) {
	changed := cmd.Flags().Changed
	if changed("manifest") {
		c.Manifest = f.manifest
	}
	if changed("data-dir") {
		c.DataDir = f.dataDir
	}
	if changed("out") {
		c.OutDir = f.outDir
	}
	if changed("seed") {
		c.Seed = f.seed
	}
	if changed("cutoff") {
		c.Cutoff = f.cutoff
	}
	if changed("workers") {
		c.Workers = f.workers
	}
	if changed("metrics-textfile") {
		c.MetricsTextfile = f.metricsTextfile
	}
}

// buildSummary is what the build command prints.
type buildSummary struct {
	RunID       string                        `json:"runId" yaml:"runId"`
	DryRun      bool                          `json:"dryRun" yaml:"dryRun"`
	Sources     int                           `json:"sources" yaml:"sources"`
	Artifacts   int                           `json:"artifacts" yaml:"artifacts"`
	Unresolved  int64                         `json:"unresolvedEvents" yaml:"unresolvedEvents"`
	Duration    string                        `json:"duration" yaml:"duration"`
	Generations []reconciler.GenerationReport `json:"generations" yaml:"generations"`
}

func summarize(r *fedtrack.Result) buildSummary {
	return buildSummary{
		RunID:       r.RunID,
		DryRun:      r.DryRun,
		Sources:     r.Sources,
		Artifacts:   len(r.Artifacts.Artifacts),
		Unresolved:  r.Diagnostics.Unresolved.Events,
		Duration:    r.Duration.Round(time.Millisecond).String(),
		Generations: r.Diagnostics.Generations,
	}
}

// generationTable renders per-generation counts as a table.
func generationTable(gens []reconciler.GenerationReport) output.Data {
	data := output.Data{
		Headers: []string{"GENERATION", "FILES", "ROWS", "ACCEPTED", "REJECTED", "REDACTED SALARY"},
		ColumnAlignment: []output.Align{
			output.AlignLeft, output.AlignRight, output.AlignRight,
			output.AlignRight, output.AlignRight, output.AlignRight,
		},
	}
	for _, g := range gens {
		var rejected int64
		for _, n := range g.Rejected {
			rejected += n
		}
		data.Rows = append(data.Rows, []string{
			g.Generation,
			strconv.Itoa(g.Files),
			strconv.FormatInt(g.Rows, 10),
			strconv.FormatInt(g.Accepted, 10),
			strconv.FormatInt(rejected, 10),
			strconv.FormatInt(g.RedactedSalary, 10),
		})
	}
	return data
}

// NewBuildCommand creates the build command.
func (a *App) NewBuildCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:     "build",
		GroupID: "core",
		Short:   "Reconcile all sources and write the artifacts",
		Long: `Build reads every source named by the run manifest, routes each record
to the generation that owns its month, accumulates the tables and writes the
artifact family. Artifacts are staged and only moved into the output
directory when every one of them was produced.`,
		Example: `  fedtrack build --data-dir ./data --out ./site/data
  fedtrack build --dry-run -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.apply(cmd, a.config)
			ctx := cmd.Context()
			logger := logging.FromContext(ctx)

			tracker, err := a.Tracker(
				fedtrack.WithDryRun(flags.dryRun),
				fedtrack.WithIndent(flags.indent),
			)
			if err != nil {
				return err
			}
			tracker.OnSourceLoaded(func(r reconciler.FileReport) {
				logger.Info().
					Str("path", r.Path).
					Str("generation", r.Generation).
					Int64("accepted", r.Accepted).
					Msg("source loaded")
			})
			tracker.OnArtifact(func(e artifacts.Entry) {
				logger.Debug().Str("artifact", e.Name).Int64("size", e.Size).Msg("artifact written")
			})

			result, err := tracker.Build(ctx)
			if err != nil {
				return err
			}

			s := summarize(result)
			out := cmd.OutOrStdout()
			format := output.DetectFormat(a.config.Format)
			if format != output.FormatTable {
				return output.NewFormatter(format).Format(out, s)
			}
			verb := "wrote"
			if s.DryRun {
				verb = "would write"
			}
			fmt.Fprintf(out, "run %s: %s %d artifacts from %d sources in %s\n", s.RunID, verb, s.Artifacts, s.Sources, s.Duration)
			if s.Unresolved > 0 {
				fmt.Fprintf(out, "%d events had sub-entities missing from the crosswalk\n", s.Unresolved)
			}
			return output.NewFormatter(format).Format(out, generationTable(s.Generations))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.outDir, "out", "", "output directory for the artifacts")
	cmd.Flags().StringVar(&flags.metricsTextfile, "metrics-textfile", "", "write run metrics in Prometheus text format to this file")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "run the whole pipeline without writing anything")
	cmd.Flags().BoolVar(&flags.indent, "indent", false, "indent artifact JSON")
	return cmd
}

// NewValidateCommand creates the validate command.
func (a *App) NewValidateCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:     "validate",
		GroupID: "core",
		Short:   "Check the manifest and every source header",
		Long: `Validate checks the run manifest, the ownership windows and the header of
every discovered source file. Every failing file is reported, not only the
first one. Nothing is accumulated or written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.apply(cmd, a.config)
			tracker, err := a.Tracker()
			if err != nil {
				return err
			}
			if err := tracker.Validate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "manifest and source headers are valid")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// NewWindowsCommand creates the windows command.
func (a *App) NewWindowsCommand() *cobra.Command {
	var flags buildFlags
	cmd := &cobra.Command{
		Use:     "windows",
		GroupID: "core",
		Short:   "Show which generation owns which months",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.apply(cmd, a.config)
			m, err := a.Manifest()
			if err != nil {
				return err
			}
			plan, err := m.Plan()
			if err != nil {
				return err
			}

			bound := func(month events.Month) string {
				if month == 0 {
					return "open"
				}
				return month.String()
			}
			data := output.Data{
				Headers:         []string{"TYPE", "GENERATION", "RANK", "FROM", "THROUGH"},
				ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignRight, output.AlignRight},
			}
			for _, w := range plan.All() {
				data.Rows = append(data.Rows, []string{
					w.Type.String(), w.Generation, strconv.Itoa(w.Rank), bound(w.From), bound(w.Through),
				})
			}
			return output.NewFormatter(output.DetectFormat(a.config.Format)).Format(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVar(&flags.manifest, "manifest", "", "run manifest file (default: built-in generations)")
	cmd.Flags().IntVar(&flags.cutoff, "cutoff", 0, "last month (YYYYMM) owned by the legacy generation")
	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("fedtrack %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}
