package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/insightdelivered/reconciliation-bot/internal/ledger"
	"github.com/insightdelivered/reconciliation-bot/internal/logger"
	"github.com/insightdelivered/reconciliation-bot/internal/models"
	"github.com/insightdelivered/reconciliation-bot/internal/parser"
	"github.com/insightdelivered/reconciliation-bot/internal/pipeline"
	"github.com/insightdelivered/reconciliation-bot/internal/storage"
	"github.com/insightdelivered/reconciliation-bot/internal/writer"
)

const defaultOutput = "reconciliation"

type reconcileOptions struct {
	rulesPath  string
	outputPath string
	kindName   string
	uploadURI  string
}

// userError renders through pipeline.UserMessage so engine faults stay
// hidden unless debug is on.
type userError struct {
	err   error
	debug bool
}

func (e *userError) Error() string { return e.err.Error() }
func (e *userError) Unwrap() error { return e.err }
func (e *userError) display() string {
	return pipeline.UserMessage(e.err, e.debug)
}

func newReconcileCommand(st *state) *cobra.Command {
	var opts reconcileOptions

	cmd := &cobra.Command{
		Use:   "reconcile <statement>",
		Short: "Build Debits and Credits ledgers from a statement (PDF, CSV, XLSX or image)",
		Long: `Extracts vendor and amount pairs from a bank statement, classifies each
vendor with keyword rules and writes a Debits and a Credits ledger.

The statement and --rules may be local paths or gs://bucket/object URIs.`,
		Example: `  reconbot reconcile statement.pdf
  reconbot reconcile export.csv --rules coa.csv --include-uncategorized=false
  reconbot reconcile scan.png --format csv --output march
  reconbot reconcile gs://statements/2024/03.pdf --upload gs://ledgers/2024/03.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.Context(), cmd.OutOrStdout(), st, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.rulesPath, "rules", "", "override rules: CSV/XLSX with keyword,account columns or YAML")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "output path (default reconciliation.xlsx, or reconciliation-{debits,credits}.csv)")
	cmd.Flags().StringVar(&opts.kindName, "type", "", "input type override: pdf, csv, xlsx, image")
	cmd.Flags().StringVar(&opts.uploadURI, "upload", "", "also upload the ledger to gs://bucket/object")
	cmd.Flags().String("format", "xlsx", "output format: xlsx or csv")
	cmd.Flags().Bool("include-uncategorized", true, "keep rows no rule matched")
	cmd.Flags().Bool("debug", false, "show full error detail")

	return cmd
}

func runReconcile(ctx context.Context, out io.Writer, st *state, statementPath string, opts reconcileOptions) error {
	cfg := st.cfg
	ctx = logger.WithContext(ctx, st.log)
	wrap := func(err error) error { return &userError{err: err, debug: cfg.Debug} }

	fmt.Fprintf(out, "Processing: %s\n", statementPath)

	var kind models.SourceKind
	if opts.kindName != "" {
		k, err := parser.ParseKind(opts.kindName)
		if err != nil {
			return wrap(err)
		}
		kind = k
	}

	name, data, err := st.readInput(ctx, statementPath)
	if err != nil {
		return err
	}
	in := pipeline.Input{Filename: name, Kind: kind, IncludeUncategorized: cfg.IncludeUncategorized}

	if opts.rulesPath != "" {
		rulesName, rules, err := st.readInput(ctx, opts.rulesPath)
		if err != nil {
			return err
		}
		in.RulesName, in.Rules = rulesName, bytes.NewReader(rules)
		fmt.Fprintf(out, "  Override rules: %s\n", opts.rulesPath)
	}

	engine := pipeline.NewFromConfig(cfg)
	result, err := engine.RunBytes(ctx, in, data)
	if err != nil {
		return wrap(err)
	}

	fmt.Fprintf(out, "  Extracted %d record(s) from %s input\n", len(result.Records), result.Kind.Label())
	printView(out, result.Ledger.Debits)
	printView(out, result.Ledger.Credits)
	if result.Ledger.Debits.Len()+result.Ledger.Credits.Len() == 0 {
		color.New(color.FgYellow).Fprintln(out, "  Warning: both ledgers are empty.")
		if !cfg.IncludeUncategorized {
			fmt.Fprintln(out, "  Uncategorized rows were excluded; try --include-uncategorized.")
		}
	}

	written, err := writeLedger(cfg.Output.Format, opts.outputPath, result.Ledger)
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintf(out, "  Output: %s\n", p)
	}

	if opts.uploadURI != "" {
		if err := st.uploadLedger(ctx, out, opts.uploadURI, cfg.Output.Format, written); err != nil {
			return err
		}
	}

	color.New(color.FgGreen).Fprintln(out, "  Done.")
	return nil
}

func printView(out io.Writer, v ledger.View) {
	fmt.Fprintf(out, "  %s: %d row(s), total %s\n", v.Name, v.Len(), v.Total().StringFixed(2))
}

func writeLedger(format, outputPath string, l *ledger.Ledger) ([]string, error) {
	switch format {
	case "csv":
		p := outputPath
		if p == "" {
			p = defaultOutput + ".csv"
		}
		written, err := (&writer.CSVWriter{}).WriteToFiles(p, l)
		if err != nil {
			return written, fmt.Errorf("CSV write failed: %w", err)
		}
		return written, nil
	default:
		p := outputPath
		if p == "" {
			p = defaultOutput + ".xlsx"
		}
		if err := (&writer.XLSXWriter{}).WriteToFile(p, l); err != nil {
			return nil, fmt.Errorf("XLSX write failed: %w", err)
		}
		return []string{p}, nil
	}
}

// readInput loads a local file or a gs:// object and returns its base name.
func (st *state) readInput(ctx context.Context, p string) (string, []byte, error) {
	if storage.IsURI(p) {
		loc, err := storage.ParseURI(p)
		if err != nil {
			return "", nil, err
		}
		client, done, err := st.openStorage(ctx)
		if err != nil {
			return "", nil, err
		}
		defer done()
		data, err := client.Download(ctx, loc)
		if err != nil {
			return "", nil, err
		}
		return loc.Base(), data, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("input file not found: %s", p)
		}
		return "", nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return filepath.Base(p), data, nil
}

// uploadTargets maps written files to objects. XLSX goes to the URI as
// given; CSV files get the same -debits/-credits suffixes as on disk.
func uploadTargets(loc storage.Location, format string, written []string) []storage.Location {
	if format != "csv" {
		return []storage.Location{loc}
	}
	base := strings.TrimSuffix(loc.Object, path.Ext(loc.Object))
	targets := make([]storage.Location, 0, len(written))
	for _, w := range written {
		name := filepath.Base(w)
		if i := strings.LastIndex(name, "-"); i >= 0 {
			name = name[i:]
		}
		targets = append(targets, storage.Location{Bucket: loc.Bucket, Object: base + name})
	}
	return targets
}

func (st *state) uploadLedger(ctx context.Context, out io.Writer, uri, format string, written []string) error {
	loc, err := storage.ParseURI(uri)
	if err != nil {
		return err
	}
	client, done, err := st.openStorage(ctx)
	if err != nil {
		return err
	}
	defer done()

	contentType := "text/csv"
	if format != "csv" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	for i, target := range uploadTargets(loc, format, written) {
		f, err := os.Open(written[i])
		if err != nil {
			return fmt.Errorf("open file %q: %w", written[i], err)
		}
		err = client.Upload(ctx, target, f, contentType)
		f.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  Uploaded: %s\n", target)
	}
	return nil
}
