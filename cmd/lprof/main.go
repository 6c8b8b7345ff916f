// The lprof command inspects the line timings saved by a lineprof.Profiler.
//
// Usage:
//
//	lprof view [--json] [--width N] profile.lprof
//	lprof browse profile.lprof
//	lprof timer [--samples N]
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "lprof",
	Short:         "Inspect line profiler results",
	Long:          "Inspect the per-line timings dumped by a lineprof.Profiler, or report on the timer they are measured with.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(viewCmd, browseCmd, timerCmd)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("lprof: ")
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
