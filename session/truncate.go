package session

import "fmt"

// maxObservationChars bounds how much command output is fed back to the
// model as a single observation.
const maxObservationChars = 10000

// truncateObservation applies head/tail truncation to oversized command
// output so one noisy command cannot flood the prompt.
func truncateObservation(output string, maxChars int) string {
	if len(output) <= maxChars {
		return output
	}
	half := maxChars / 2
	removed := len(output) - maxChars
	return output[:half] +
		fmt.Sprintf("\n\n[WARNING: Output was truncated. %d characters were removed from the middle. "+
			"Re-run the command with more targeted arguments if you need the rest.]\n\n", removed) +
		output[len(output)-half:]
}
