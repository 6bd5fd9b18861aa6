// Package output renders compression results and statistics in text, JSON,
// and table formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bimmerbailey/htmlmin/internal/batch"
	"github.com/bimmerbailey/htmlmin/internal/compressor"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w        io.Writer
	format   Format
	colorize bool
}

// New creates a new output Writer with color detected from w.
func New(w io.Writer, format Format) *Writer {
	return NewWithColor(w, format, ColorAuto)
}

// NewWithColor creates a Writer that colors text output according to mode.
// JSON output is never colored.
func NewWithColor(w io.Writer, format Format, mode ColorMode) *Writer {
	return &Writer{
		w:        w,
		format:   format,
		colorize: format != FormatJSON && shouldColorize(mode, w),
	}
}

// Summary totals a set of results.
type Summary struct {
	Files          int `json:"files"`
	Failed         int `json:"failed"`
	OriginalSize   int `json:"original_size"`
	CompressedSize int `json:"compressed_size"`
}

// Summarize totals the successful results and counts the failed ones.
func Summarize(results []batch.Result) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.OriginalSize += r.OriginalSize
		s.CompressedSize += r.CompressedSize
	}
	return s
}

// Savings returns the number of bytes removed across all files.
func (s Summary) Savings() int {
	return s.OriginalSize - s.CompressedSize
}

type resultJSON struct {
	batch.Result
	Error string `json:"error,omitempty"`
}

type reportJSON struct {
	Files   []resultJSON `json:"files"`
	Summary Summary      `json:"summary"`
}

// WriteResults outputs one line or row per file followed by a summary.
func (wr *Writer) WriteResults(results []batch.Result) error {
	switch wr.format {
	case FormatJSON:
		return wr.writeJSON(results, false)
	case FormatTable:
		return wr.writeTable(results)
	default:
		return wr.writeText(results)
	}
}

// WriteResult outputs a single result without a summary. JSON is written as
// one compact object per line so a stream of results stays parseable.
func (wr *Writer) WriteResult(r batch.Result) error {
	if wr.format == FormatJSON {
		rj := resultJSON{Result: r}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		return json.NewEncoder(wr.w).Encode(rj)
	}

	if r.Err != nil {
		_, err := fmt.Fprintln(wr.w, wr.failure(r.Path+": "+r.Err.Error()))
		return err
	}
	line := fmt.Sprintf("%s: %d -> %d bytes (%s)", r.Path, r.OriginalSize, r.CompressedSize, percent(r.OriginalSize, r.CompressedSize))
	_, err := fmt.Fprintln(wr.w, wr.savings(r.Savings(), line))
	return err
}

// WriteStatistics outputs the per-category statistics of each file.
func (wr *Writer) WriteStatistics(results []batch.Result) error {
	switch wr.format {
	case FormatJSON:
		return wr.writeJSON(results, true)
	case FormatTable:
		return wr.writeStatsTable(results)
	default:
		return wr.writeStatsText(results)
	}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (wr *Writer) writeJSON(results []batch.Result, withStats bool) error {
	report := reportJSON{
		Files:   make([]resultJSON, 0, len(results)),
		Summary: Summarize(results),
	}
	for _, r := range results {
		rj := resultJSON{Result: r}
		if !withStats {
			rj.Stats = nil
		}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		report.Files = append(report.Files, rj)
	}
	return wr.WriteJSON(report)
}

func (wr *Writer) writeText(results []batch.Result) error {
	for _, r := range results {
		if err := wr.WriteResult(r); err != nil {
			return err
		}
	}
	return wr.writeSummary(Summarize(results))
}

func (wr *Writer) writeSummary(s Summary) error {
	line := fmt.Sprintf("%d files, %d -> %d bytes, saved %d (%s)",
		s.Files, s.OriginalSize, s.CompressedSize, s.Savings(), percent(s.OriginalSize, s.CompressedSize))
	if s.Failed > 0 {
		line += fmt.Sprintf(", %d failed", s.Failed)
	}
	_, err := fmt.Fprintln(wr.w, wr.bold(line))
	return err
}

func (wr *Writer) writeTable(results []batch.Result) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tORIGINAL\tCOMPRESSED\tSAVED\tRATIO\tTIME")
	fmt.Fprintln(tw, "----\t--------\t----------\t-----\t-----\t----")

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t%s\n", truncate(r.Path, 60), wr.failure("error"))
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n",
			truncate(r.Path, 60), r.OriginalSize, r.CompressedSize, r.Savings(),
			percent(r.OriginalSize, r.CompressedSize), r.Duration.Round(time.Microsecond))
	}

	s := Summarize(results)
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t%d\t%s\t\n", s.OriginalSize, s.CompressedSize, s.Savings(), percent(s.OriginalSize, s.CompressedSize))
	return tw.Flush()
}

func (wr *Writer) writeStatsText(results []batch.Result) error {
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(wr.w)
		}
		fmt.Fprintln(wr.w, wr.bold(r.Path))
		if r.Err != nil {
			fmt.Fprintln(wr.w, "  "+wr.failure(r.Err.Error()))
			continue
		}
		if r.Stats == nil {
			fmt.Fprintf(wr.w, "  %d -> %d bytes (%s)\n", r.OriginalSize, r.CompressedSize, percent(r.OriginalSize, r.CompressedSize))
			continue
		}

		s := r.Stats
		fmt.Fprintf(wr.w, "  size:        %d -> %d bytes (%s)\n", s.Original.Filesize, s.Compressed.Filesize, percent(s.Original.Filesize, s.Compressed.Filesize))
		fmt.Fprintf(wr.w, "  whitespace:  %d -> %d\n", s.Original.EmptyChars, s.Compressed.EmptyChars)
		fmt.Fprintf(wr.w, "  scripts:     %d -> %d\n", s.Original.InlineScriptSize, s.Compressed.InlineScriptSize)
		fmt.Fprintf(wr.w, "  styles:      %d -> %d\n", s.Original.InlineStyleSize, s.Compressed.InlineStyleSize)
		fmt.Fprintf(wr.w, "  events:      %d -> %d\n", s.Original.InlineEventSize, s.Compressed.InlineEventSize)
		fmt.Fprintf(wr.w, "  preserved:   %d bytes\n", s.PreservedSize)
		if s.MinifyFailures > 0 {
			fmt.Fprintln(wr.w, "  "+wr.failure(fmt.Sprintf("minify failures: %d", s.MinifyFailures)))
		}
		for _, c := range categories(s) {
			cs := s.Categories[c]
			fmt.Fprintf(wr.w, "  %-12s %d blocks, %d -> %d bytes\n", c.String()+":", cs.Blocks, cs.OriginalBytes, cs.RestoredBytes)
		}
		fmt.Fprintf(wr.w, "  elapsed:     %s\n", s.Elapsed.Round(time.Microsecond))
	}
	return nil
}

func (wr *Writer) writeStatsTable(results []batch.Result) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCATEGORY\tBLOCKS\tORIGINAL\tRESTORED")
	fmt.Fprintln(tw, "----\t--------\t------\t--------\t--------")

	for _, r := range results {
		path := truncate(r.Path, 60)
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\n", path, wr.failure("error"))
			continue
		}
		if r.Stats == nil {
			fmt.Fprintf(tw, "%s\t(total)\t-\t%d\t%d\n", path, r.OriginalSize, r.CompressedSize)
			continue
		}
		for _, c := range categories(r.Stats) {
			cs := r.Stats.Categories[c]
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\n", path, c, cs.Blocks, cs.OriginalBytes, cs.RestoredBytes)
		}
		fmt.Fprintf(tw, "%s\t(total)\t-\t%d\t%d\n", path, r.Stats.Original.Filesize, r.Stats.Compressed.Filesize)
	}

	return tw.Flush()
}

// categories returns the categories present in s in extraction order.
func categories(s *compressor.Statistics) []compressor.Category {
	var out []compressor.Category
	for c := compressor.CategoryUser; c <= compressor.CategoryCDATA; c++ {
		if _, ok := s.Categories[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

func percent(original, compressed int) string {
	if original == 0 {
		return "100.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(compressed)/float64(original)*100)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-(n-3):]
}
