package lineprof

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/slices"
)

const rowTemplate = "%6s %9s %12s %8s %8s  %-s"

// ShowOption configures ShowText and ShowFunc.
type ShowOption func(*showConfig)

type showConfig struct {
	width int
}

// WithWidth truncates report rows to at most n characters. Zero or a
// negative n means no limit.
func WithWidth(n int) ShowOption {
	return func(c *showConfig) { c.width = n }
}

// ShowText writes the report of every function in stats to w, in the order
// given by stats.Keys.
func ShowText(w io.Writer, stats *LineStats, opts ...ShowOption) error {
	cfg := newShowConfig(opts)
	sources := make(sourceCache)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Timer unit: %g s\n\n", stats.Unit)
	for _, key := range stats.Keys() {
		showFunc(&buf, sources, key, stats.Timings[key], stats.Unit, cfg)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ShowFunc writes the report of a single function to w: its total time and
// its source, with the timings of each line alongside.
func ShowFunc(w io.Writer, key FuncKey, timings []LineTiming, unit float64, opts ...ShowOption) error {
	var buf bytes.Buffer
	showFunc(&buf, make(sourceCache), key, timings, unit, newShowConfig(opts))
	_, err := w.Write(buf.Bytes())
	return err
}

func newShowConfig(opts []ShowOption) *showConfig {
	cfg := &showConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func showFunc(buf *bytes.Buffer, sources sourceCache, key FuncKey, timings []LineTiming, unit float64, cfg *showConfig) {
	var total int64
	byLine := make(map[int]LineTiming, len(timings))
	for _, t := range timings {
		total += t.Ticks
		byLine[t.Line] = t
	}

	fmt.Fprintf(buf, "File: %s\n", key.Filename)
	fmt.Fprintf(buf, "Function: %s at line %d\n", key.Name, key.StartLine)
	fmt.Fprintf(buf, "Total time: %g s\n", float64(total)*unit)

	lines, err := sources.block(key.Filename, key.StartLine)
	var linenos []int
	if err != nil {
		buf.WriteString("\n")
		if errors.Is(err, errPastEnd) {
			fmt.Fprintf(buf, "Line %d is past the end of %s\n", key.StartLine, key.Filename)
			buf.WriteString("Was the file changed after profiling?\n")
		} else {
			fmt.Fprintf(buf, "Could not find file %s\n", key.Filename)
			buf.WriteString("Are you sure you are running this program from the same directory\n")
			buf.WriteString("that you ran the profiler from?\n")
		}
		buf.WriteString("Continuing without the function's contents.\n")

		// Blank rows so the timings are still visible.
		lines = nil
		linenos = blankRows(key.StartLine, timings)
	} else {
		for i := range lines {
			linenos = append(linenos, key.StartLine+i)
		}
	}

	header := fmt.Sprintf(rowTemplate, "Line #", "Hits", "Time", "Per Hit", "% Time", "Line Contents")
	buf.WriteString("\n")
	buf.WriteString(truncate(header, cfg.width) + "\n")
	buf.WriteString(truncate(strings.Repeat("=", len(header)), cfg.width) + "\n")
	for i, lineno := range linenos {
		var contents string
		if i < len(lines) {
			contents = lines[i]
		}
		var hits, ticks, perHit, percent string
		if t, ok := byLine[lineno]; ok {
			hits = strconv.FormatInt(t.Hits, 10)
			ticks = strconv.FormatInt(t.Ticks, 10)
			if t.Hits > 0 {
				perHit = fmt.Sprintf("%5.1f", float64(t.Ticks)/float64(t.Hits))
			}
			if total > 0 {
				percent = fmt.Sprintf("%5.1f", 100*float64(t.Ticks)/float64(total))
			} else {
				percent = fmt.Sprintf("%5.1f", 0.0)
			}
		}
		row := fmt.Sprintf(rowTemplate, strconv.Itoa(lineno), hits, ticks, perHit, percent, contents)
		buf.WriteString(truncate(row, cfg.width) + "\n")
	}
	buf.WriteString("\n")
}

// maxBlankRows bounds the span of blank rows rendered when the source of a
// function is unavailable. Wider spans show only the lines with timings.
const maxBlankRows = 1000

// blankRows returns the line numbers to render without source: every line
// from the first to the last one known, or just the known ones when that
// span is too wide.
func blankRows(start int, timings []LineTiming) []int {
	known := make([]int, 0, len(timings)+1)
	if start >= 1 {
		known = append(known, start)
	}
	for _, t := range timings {
		if t.Line >= 1 {
			known = append(known, t.Line)
		}
	}
	if len(known) == 0 {
		return nil
	}
	slices.Sort(known)
	known = slices.Compact(known)

	first, last := known[0], known[len(known)-1]
	if last-first >= maxBlankRows {
		return known
	}
	rows := make([]int, 0, last-first+1)
	for lineno := first; lineno <= last; lineno++ {
		rows = append(rows, lineno)
	}
	return rows
}

func truncate(s string, width int) string {
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	n := 0
	for i := range s {
		if n == width {
			return s[:i]
		}
		n++
	}
	return s
}

var errPastEnd = errors.New("declaration is past the end of the file")

// sourceCache holds the lines of the source files read while rendering one
// report, with tabs expanded.
type sourceCache map[string][]string

func (c sourceCache) lines(filename string) ([]string, error) {
	if lines, ok := c[filename]; ok {
		return lines, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.ReplaceAll(strings.TrimRight(line, "\r"), "\t", "    ")
	}
	c[filename] = lines
	return lines, nil
}

// block returns the lines of the function declared at line start: up to
// and including the first later line that closes a brace at the
// declaration's indentation, or just the declaration if it opens and closes
// on the same line.
func (c sourceCache) block(filename string, start int) ([]string, error) {
	lines, err := c.lines(filename)
	if err != nil {
		return nil, err
	}
	if start < 1 || start > len(lines) {
		return nil, errPastEnd
	}
	lines = lines[start-1:]

	decl := lines[0]
	if strings.Contains(decl, "{") && strings.Count(decl, "{") == strings.Count(decl, "}") {
		return lines[:1], nil
	}
	indent := decl[:len(decl)-len(strings.TrimLeft(decl, " "))]
	for i, line := range lines[1:] {
		if strings.HasPrefix(line, indent+"}") {
			return lines[:i+2], nil
		}
	}
	return lines, nil
}
