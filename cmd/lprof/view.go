package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/canonical/lineprof/lineprof"
)

var (
	viewOpts = struct {
		json  bool
		width int
	}{}

	viewCmd = &cobra.Command{
		Use:   "view FILE",
		Short: "Print the report of a stats file",
		Long:  "Print every profiled function of a stats file with its source and the timings of each line.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := lineprof.LoadStats(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if viewOpts.json {
				data, err := lineprof.FormatJSON(stats)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			return lineprof.ShowText(out, stats, lineprof.WithWidth(reportWidth(out, viewOpts.width)))
		},
	}
)

func init() {
	viewCmd.Flags().BoolVar(&viewOpts.json, "json", false, "Print the stats as JSON instead of a report")
	viewCmd.Flags().IntVarP(&viewOpts.width, "width", "w", -1, "Truncate rows to this many columns. Default: terminal width, or no limit when not a terminal")
}

// reportWidth returns the row limit for a report written to w. A negative
// requested width selects the width of the terminal w writes to, if any.
func reportWidth(w io.Writer, requested int) int {
	if requested >= 0 {
		return requested
	}
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
