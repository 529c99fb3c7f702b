package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/arota-dev/pipeflow/internal/model"
)

// printResults renders a completed run's results either as indented JSON or
// as a plain summary table. In table mode it sets a nonzero exit status if
// any sample failed; JSON mode leaves the exit status untouched.
func printResults(results []model.SampleResult, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}

	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("%-24s %-10s %-10s %s\n", "Sample", "Status", "Duration", "Error")
	fmt.Println(strings.Repeat("-", 72))

	failures := 0
	for _, r := range results {
		status := "ok"
		if !r.Successful() {
			status = "failed"
			failures++
		}
		fmt.Printf("%-24s %-10s %-10s %s\n",
			truncateText(r.SampleID, 24),
			status,
			r.TotalTime.Round(time.Millisecond),
			truncateText(r.ErrorMessage, 30),
		)
	}

	fmt.Println(strings.Repeat("=", 72))
	fmt.Printf("%d/%d samples succeeded\n", len(results)-failures, len(results))

	if failures > 0 {
		exitFunc(1)
	}
	return nil
}

func truncateText(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
