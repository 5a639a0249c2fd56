package conversation

import "strings"

// matchTranscript returns the first option, in option order, whose text is
// contained in the transcript. Matching ignores case.
func matchTranscript(transcript string, options []string) (string, bool) {
	heard := strings.ToLower(strings.TrimSpace(transcript))
	if heard == "" {
		return "", false
	}

	for _, option := range options {
		needle := strings.ToLower(strings.TrimSpace(option))
		if needle == "" {
			continue
		}
		if strings.Contains(heard, needle) {
			return option, true
		}
	}
	return "", false
}
