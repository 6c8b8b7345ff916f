package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/canonical/lineprof/hrtimer"
)

var (
	timerSamples int

	timerCmd = &cobra.Command{
		Use:   "timer",
		Short: "Describe the timer used for profiling",
		Long:  "Print the timing facility compiled into this build, its tick unit, and the smallest tick step seen between back-to-back reads.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if timerSamples < 2 {
				return fmt.Errorf("--samples must be at least 2, got %d", timerSamples)
			}
			unit := hrtimer.TickDuration()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Timer: %s\n", hrtimer.Name)
			fmt.Fprintf(out, "Timer unit: %g s\n", unit)
			if step := smallestStep(timerSamples); step > 0 {
				fmt.Fprintf(out, "Smallest step: %d ticks (%g s)\n", step, float64(step)*unit)
			} else {
				fmt.Fprintf(out, "Smallest step: none seen in %d samples\n", timerSamples)
			}
			return nil
		},
	}
)

func init() {
	timerCmd.Flags().IntVarP(&timerSamples, "samples", "n", 1_000_000, "Number of back-to-back reads")
}

// smallestStep returns the smallest non-zero difference between successive
// reads of the counter, or zero if it never moved.
func smallestStep(samples int) int64 {
	step := int64(math.MaxInt64)
	prev := hrtimer.Now()
	for i := 1; i < samples; i++ {
		next := hrtimer.Now()
		if d := int64(next - prev); d > 0 && d < step {
			step = d
		}
		prev = next
	}
	if step == math.MaxInt64 {
		return 0
	}
	return step
}
