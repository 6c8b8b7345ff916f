package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/canonical/lineprof/lineprof"
)

func writeStats(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "profile.lprof")
	stats := &lineprof.LineStats{
		Unit: 1e-6,
		Timings: map[lineprof.FuncKey][]lineprof.LineTiming{
			{Filename: "missing/work.go", StartLine: 3, Name: "demo.work"}:  {{Line: 4, Hits: 2, Ticks: 40}},
			{Filename: "missing/work.go", StartLine: 9, Name: "demo.Other"}: {{Line: 10, Hits: 1, Ticks: 5}},
		},
	}
	if err := lineprof.DumpStats(filename, stats); err != nil {
		t.Fatal(err)
	}
	return filename
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestViewCommand(t *testing.T) {
	filename := writeStats(t)

	out, err := run(t, "view", "--json=false", "--width", "0", filename)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Timer unit: 1e-06 s\n",
		"Function: demo.work at line 3\n",
		"Function: demo.Other at line 9\n",
		"Could not find file missing/work.go\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view output lacks %q:\n%s", want, out)
		}
	}
}

func TestViewCommandJSON(t *testing.T) {
	filename := writeStats(t)

	out, err := run(t, "view", "--json", filename)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"demo.work"`) || !strings.Contains(out, `"unit"`) {
		t.Errorf("unexpected JSON output:\n%s", out)
	}
}

func TestViewCommandMissingFile(t *testing.T) {
	if _, err := run(t, "view", "--json=false", filepath.Join(t.TempDir(), "nope.lprof")); err == nil {
		t.Error("viewing a missing file succeeded")
	}
}

func TestTimerCommand(t *testing.T) {
	out, err := run(t, "timer", "--samples", "1000")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "Timer: ") || !strings.Contains(out, "\nTimer unit: ") {
		t.Errorf("unexpected timer output:\n%s", out)
	}

	if _, err := run(t, "timer", "--samples", "1"); err == nil {
		t.Error("timer accepted a single sample")
	}
}

func TestBrowseQuery(t *testing.T) {
	stats, err := lineprof.LoadStats(writeStats(t))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		quit  bool
		want  []string
		avoid []string
	}{
		{query: "", want: []string{"demo.work (missing/work.go:3)\n", "demo.Other (missing/work.go:9)\n"}},
		{query: "WORK", want: []string{"Function: demo.work at line 3"}, avoid: []string{"demo.Other"}},
		{query: "zzz", want: []string{`no function matches "zzz"`}},
		{query: "quit", quit: true},
	}
	for _, test := range tests {
		var out bytes.Buffer
		quit, err := browseQuery(&out, stats, test.query)
		if err != nil {
			t.Errorf("query %q: %v", test.query, err)
			continue
		}
		if quit != test.quit {
			t.Errorf("query %q: quit = %v, want %v", test.query, quit, test.quit)
		}
		for _, want := range test.want {
			if !strings.Contains(out.String(), want) {
				t.Errorf("query %q: output lacks %q:\n%s", test.query, want, out.String())
			}
		}
		for _, avoid := range test.avoid {
			if strings.Contains(out.String(), avoid) {
				t.Errorf("query %q: output contains %q:\n%s", test.query, avoid, out.String())
			}
		}
	}
}

func TestSmallestStep(t *testing.T) {
	if step := smallestStep(2); step < 0 {
		t.Errorf("negative step %d", step)
	}
}

func TestReportWidth(t *testing.T) {
	if width := reportWidth(&bytes.Buffer{}, 30); width != 30 {
		t.Errorf("explicit width gave %d, want 30", width)
	}
	if width := reportWidth(&bytes.Buffer{}, -1); width != 0 {
		t.Errorf("buffer output gave width %d, want no limit", width)
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "report.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if width := reportWidth(f, -1); width != 0 {
		t.Errorf("regular file output gave width %d, want no limit", width)
	}
}

func TestViewCommandRedirectedWidth(t *testing.T) {
	filename := writeStats(t)

	out, err := run(t, "view", "--json=false", "--width=-1", filename)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Line #      Hits         Time  Per Hit   % Time  Line Contents\n") {
		t.Errorf("report written to a buffer was truncated:\n%s", out)
	}
}
