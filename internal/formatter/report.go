// Package formatter renders run summaries and record listings as tables.
package formatter

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"xkcdharvest/internal/harvest"
	"xkcdharvest/internal/models"
	"xkcdharvest/pkg/utils"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Output formats.
const (
	FormatTable    = "table"
	FormatMarkdown = "markdown"
)

// DefaultTitleWidth is the column width titles are truncated to.
const DefaultTitleWidth = 40

// ErrUnknownFormat is returned for an output format other than table or markdown.
var ErrUnknownFormat = errors.New("unknown output format")

var stringHelper = utils.NewStringHelper()

// ValidateFormat checks that format can be rendered.
func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatMarkdown:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)

	return t
}

func render(t table.Writer, format string) {
	if format == FormatMarkdown {
		t.RenderMarkdown()

		return
	}

	t.Render()
}

// Summary describes a finished run for display.
type Summary struct {
	RunID     string
	Result    *harvest.Result
	Partition string
	DryRun    bool
}

// WriteSummary renders the run statistics followed by per-field missing counts.
func WriteSummary(w io.Writer, s Summary, format string) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}

	if s.Result == nil {
		return errors.New("summary has no result")
	}

	stats := s.Result.Stats

	idRange := "-"
	if !s.Result.Empty() {
		idRange = fmt.Sprintf("%d-%d", s.Result.MinID, s.Result.MaxID)
	}

	partition := s.Partition

	switch {
	case s.DryRun:
		partition = "(dry run, nothing written)"
	case partition == "":
		partition = "(no new records)"
	}

	t := newTable(w)
	t.SetTitle("Harvest " + s.RunID)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Resume after id", s.Result.ResumeAfterID},
		{"Discovered", stats.Discovered},
		{"Unidentified", stats.Unidentified},
		{"Already harvested", stats.AlreadyHarvested},
		{"Scheduled", stats.Scheduled},
		{"Detail failures", stats.DetailFailures},
		{"Asset failures", stats.AssetFailures},
		{"Invalid dropped", stats.Invalid},
		{"Duplicates dropped", stats.Duplicates},
		{"Records kept", stats.Kept},
		{"Id range", idRange},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Fetch attempts", stats.Fetch.TotalAttempts},
		{"Failed attempts", stats.Fetch.FailedAttempts},
		{"Retried URLs", stats.Fetch.RetriedURLs},
		{"Failed URLs", stats.Fetch.FailedURLs},
		{"Elapsed", stats.Elapsed.Round(time.Millisecond).String()},
	})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Partition", partition})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	render(t, format)

	if len(stats.Missing) == 0 {
		return nil
	}

	fields := make([]string, 0, len(stats.Missing))
	for field := range stats.Missing {
		fields = append(fields, field)
	}

	sort.Strings(fields)

	missing := newTable(w)
	missing.SetTitle("Missing fields")
	missing.AppendHeader(table.Row{"Field", "Records"})

	for _, field := range fields {
		missing.AppendRow(table.Row{field, stats.Missing[field]})
	}

	render(missing, format)

	return nil
}

// WriteRecords lists records with a mark for every optional field present.
// Titles are truncated to titleWidth terminal columns.
func WriteRecords(w io.Writer, records []models.Record, format string, titleWidth int) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}

	if titleWidth <= 0 {
		titleWidth = DefaultTitleWidth
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Image title", "Image URL", "Transcript", "Explanation"})

	for i := range records {
		r := &records[i]

		id := "-"
		if r.ID != nil {
			id = strconv.Itoa(*r.ID)
		}

		t.AppendRow(table.Row{
			id,
			stringHelper.TruncateString(r.Title, titleWidth),
			mark(r.ImageTitle),
			mark(r.ImageURL),
			lines(r.Transcript),
			lines(r.Explanation),
		})
	}

	t.AppendFooter(table.Row{"", fmt.Sprintf("%d records", len(records))})
	render(t, format)

	return nil
}

func mark(s *string) string {
	if s == nil {
		return "-"
	}

	return "yes"
}

// lines reports how many lines a section holds.
func lines(s *string) string {
	if s == nil {
		return "-"
	}

	if *s == "" {
		return "empty"
	}

	return fmt.Sprintf("%d lines", strings.Count(*s, "\n")+1)
}
