package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/canonical/lineprof/lineprof"
)

var browseCmd = &cobra.Command{
	Use:   "browse FILE",
	Short: "Interactively browse a stats file",
	Long: `Load a stats file and prompt for function names. Each input is matched,
ignoring case, against the names of the profiled functions and the reports of
the matching functions are printed. An empty input lists every function.
Type "quit" or press Ctrl-D to leave.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := lineprof.LoadStats(args[0])
		if err != nil {
			return err
		}

		rl, err := readline.New("lprof> ")
		if err != nil {
			return err
		}
		defer rl.Close()

		out := cmd.OutOrStdout()
		for {
			line, err := rl.Readline()
			if err == readline.ErrInterrupt {
				if line == "" {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			} else if err != nil {
				return err
			}

			quit, err := browseQuery(out, stats, strings.TrimSpace(line))
			if err != nil || quit {
				return err
			}
		}
	},
}

// browseQuery answers one line of input to the browse prompt.
func browseQuery(w io.Writer, stats *lineprof.LineStats, query string) (quit bool, err error) {
	switch query {
	case "quit", "exit":
		return true, nil
	case "":
		for _, key := range stats.Keys() {
			if _, err := fmt.Fprintf(w, "%s (%s:%d)\n", key.Name, key.Filename, key.StartLine); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	matched := stats.Filter(query)
	if len(matched.Timings) == 0 {
		_, err := fmt.Fprintf(w, "no function matches %q\n", query)
		return false, err
	}
	return false, lineprof.ShowText(w, matched)
}
