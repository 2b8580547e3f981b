package commands

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcao2/careops-triage/internal/report"
	"github.com/mcao2/careops-triage/internal/source"
	"github.com/mcao2/careops-triage/internal/triage"
)

// Output formats for rank
const (
	formatTable = "table"
	formatJSON  = "json"
	formatXLSX  = "xlsx"
)

type rankOptions struct {
	window        string
	tiers         []string
	categories    []string
	departments   []string
	senders       []string
	keyword       string
	minConfidence float64
	actionOnly    bool
	unreadOnly    bool
	onlineOnly    bool
	preset        string
	algorithm     string
	format        string
	output        string
}

func newRankCommand(global *globalOptions) *cobra.Command {
	opts := &rankOptions{}

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Print the ranked triage queue without the dashboard",
		Long: `Fetch items from the configured source, classify them with the saved
settings and print the ranked queue.

Examples:
  careops-triage rank
  careops-triage rank --window week --tier critical --tier high
  careops-triage rank --preset icu --format json
  careops-triage rank --format xlsx -o handover.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.window, "window", "", "Time window: today, week, month or all (default today)")
	f.StringSliceVar(&opts.tiers, "tier", nil, "Only show these tiers (repeatable)")
	f.StringSliceVar(&opts.categories, "category", nil, "Only show these categories (repeatable)")
	f.StringSliceVar(&opts.departments, "department", nil, "Only show these departments (repeatable)")
	f.StringSliceVar(&opts.senders, "sender", nil, "Only show these senders (repeatable)")
	f.StringVar(&opts.keyword, "keyword", "", "Only show items mentioning this keyword")
	f.Float64Var(&opts.minConfidence, "min-confidence", 0, "Minimum classification confidence")
	f.BoolVar(&opts.actionOnly, "action-only", false, "Only show items that need action")
	f.BoolVar(&opts.unreadOnly, "unread-only", false, "Only show unread items")
	f.BoolVar(&opts.onlineOnly, "online-only", false, "Only show items from online senders")
	f.StringVar(&opts.preset, "preset", "", "Start from a saved filter preset")
	f.StringVar(&opts.algorithm, "algorithm", "", "Classify with this algorithm instead of the saved one")
	f.StringVar(&opts.format, "format", formatTable, "Output format: table, json or xlsx")
	f.StringVarP(&opts.output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func runRank(cmd *cobra.Command, global *globalOptions, opts *rankOptions) error {
	format := strings.ToLower(opts.format)
	if !slices.Contains([]string{formatTable, formatJSON, formatXLSX}, format) {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	if format == formatXLSX && opts.output == "" {
		return fmt.Errorf("--output is required for xlsx")
	}

	h, err := global.openHeadless(cmd)
	if err != nil {
		return err
	}
	defer closeQuietly(h, h.log)

	spec, err := opts.filterSpec(cmd, h)
	if err != nil {
		return err
	}

	settings := h.engine.Settings()
	if opts.algorithm != "" {
		override := settings.Clone()
		override.Algorithm = triage.Algorithm(strings.ToLower(opts.algorithm))
		// a throwaway store validates the override without persisting it
		store, err := triage.NewStoreWith(override)
		if err != nil {
			return err
		}
		settings = store.Get()
	}

	if err := source.Verify(cmd.Context(), h.src); err != nil {
		return triage.DataSourceError(h.src.Name(), err)
	}

	items, err := h.src.Fetch(cmd.Context())
	if err != nil {
		return triage.DataSourceError(h.src.Name(), err)
	}

	now := time.Now()
	res, err := triage.Process(items, settings, spec, now)
	if err != nil {
		if !triage.IsInputError(err) {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d malformed items\n", countLeaves(err))
	}

	r := report.New(res, h.src.Name(), settings.Algorithm, spec, now)

	var w io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		file, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.output, err)
		}
		defer file.Close()
		w = file
	}

	switch format {
	case formatJSON:
		err = report.WriteJSON(w, r)
	case formatXLSX:
		err = report.WriteXLSX(w, r)
	default:
		err = report.WriteTable(w, r)
	}
	if err != nil {
		return err
	}
	if opts.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d items to %s\n", len(r.Items), opts.output)
	}
	return nil
}

// filterSpec starts from the preset or the default filter and applies the
// flags the user set explicitly
func (o *rankOptions) filterSpec(cmd *cobra.Command, h *headless) (triage.FilterSpec, error) {
	spec := triage.DefaultFilter()
	if w := triage.Window(h.cfg.DefaultWindow); slices.Contains(triage.Windows, w) {
		spec.Window = w
	}
	if o.preset != "" {
		loaded, err := h.engine.LoadPreset(o.preset)
		if err != nil {
			return spec, err
		}
		spec = loaded
	}

	changed := cmd.Flags().Changed
	if changed("window") {
		w := triage.Window(strings.ToLower(o.window))
		if !slices.Contains(triage.Windows, w) {
			return spec, fmt.Errorf("unknown window %q", o.window)
		}
		spec.Window = w
		spec.Start, spec.End = nil, nil
	}
	if changed("tier") {
		spec.Tiers = spec.Tiers[:0:0]
		for _, t := range o.tiers {
			tier := triage.Tier(strings.ToLower(strings.TrimSpace(t)))
			if !tier.Valid() {
				return spec, fmt.Errorf("unknown tier %q", t)
			}
			spec.Tiers = append(spec.Tiers, tier)
		}
	}
	if changed("category") {
		spec.Categories = spec.Categories[:0:0]
		for _, c := range o.categories {
			cat := triage.Category(strings.ToLower(strings.TrimSpace(c)))
			if !cat.Valid() {
				return spec, fmt.Errorf("unknown category %q", c)
			}
			spec.Categories = append(spec.Categories, cat)
		}
	}
	if changed("department") {
		spec.Departments = o.departments
	}
	if changed("sender") {
		spec.Senders = o.senders
	}
	if changed("keyword") {
		spec.Keyword = o.keyword
	}
	if changed("min-confidence") {
		if o.minConfidence < 0 || o.minConfidence > 1 {
			return spec, fmt.Errorf("--min-confidence must be between 0 and 1")
		}
		spec.MinConfidence = o.minConfidence
	}
	if changed("action-only") {
		spec.ActionRequiredOnly = o.actionOnly
	}
	if changed("unread-only") {
		spec.UnreadOnly = o.unreadOnly
	}
	if changed("online-only") {
		spec.OnlineOnly = o.onlineOnly
	}
	return spec, nil
}

// countLeaves counts the errors joined into err
func countLeaves(err error) int {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return len(j.Unwrap())
	}
	return 1
}
