package text

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/olusolaa/cloud-housekeeper/internal/core/domain"
	"github.com/olusolaa/cloud-housekeeper/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-housekeeper/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `mapstructure:"no_color"`
	// Verbose lists successful results too, not only failures.
	Verbose bool `mapstructure:"verbose"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
	return NewReporterWithWriter(cfg, os.Stdout, logger), nil
}

func NewReporterWithWriter(cfg Config, w io.Writer, logger ports.Logger) *Reporter {
	return &Reporter{config: cfg, writer: w, logger: logger}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return apperrors.New(apperrors.CodeInternal, "nil report")
	}

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	title := fmt.Sprintf("Housekeeping Report: %s", report.Task)
	fmt.Fprintln(tw, title)
	fmt.Fprintln(tw, strings.Repeat("=", len(title)))
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(tw, "Duration:\t%s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	}

	kinds := make([]string, 0, len(report.Inventory))
	for kind := range report.Inventory {
		kinds = append(kinds, kind.String())
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(tw, "Listed %s:\t%d\n", kind, report.Inventory[domain.ResourceKind(kind)])
	}

	results := append([]domain.TaskResult(nil), report.Results...)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Action != results[j].Action {
			return results[i].Action < results[j].Action
		}
		return results[i].Resource < results[j].Resource
	})

	shown := 0
	for _, res := range results {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if res.Succeeded() && !r.config.Verbose {
			continue
		}
		if shown == 0 {
			fmt.Fprintln(tw, "\nStatus\tAction\tKind\tResource\tRegion\tDetails")
			fmt.Fprintln(tw, "------\t------\t----\t--------\t------\t-------")
		}
		shown++

		status := green("[OK]")
		details := res.Detail
		if !res.Succeeded() {
			status = red("[FAILED]")
			details = fmt.Sprintf("%v", res.Err)
			if appErr := (*apperrors.AppError)(nil); errors.As(res.Err, &appErr) && appErr.IsUserFacing {
				details += fmt.Sprintf(" (%s)", appErr.SuggestedAction)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", status, res.Action, res.Kind, res.Resource, res.Region, details)
	}

	for _, p := range report.Partial {
		fmt.Fprintf(tw, "%s\t%s\n", yellow("[PARTIAL]"), p)
	}
	for _, n := range report.Notices {
		fmt.Fprintf(tw, "%s\t%s\n", cyan("[NOTICE]"), n)
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	seen := map[domain.Action]bool{}
	for _, res := range results {
		if seen[res.Action] {
			continue
		}
		seen[res.Action] = true
		ok, failed := report.Count(res.Action)
		fmt.Fprintf(tw, "%s:\t%s ok\t%s failed\n", res.Action, green(ok), red(failed))
	}
	if len(results) == 0 {
		fmt.Fprintln(tw, "No changes were needed.")
	}
	fmt.Fprintf(tw, "Skipped:\t%d\n", report.Skipped)

	return nil
}
