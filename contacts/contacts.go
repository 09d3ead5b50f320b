// Package contacts extracts email addresses from arbitrary uploaded text
// (CSV exports, pasted address books) for the saved-contacts set.
package contacts

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Extract returns every address found in the input, lower-cased and deduped,
// in order of first appearance. Anything around the addresses is ignored, so
// any text format that contains addresses imports cleanly.
func Extract(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		addr := strings.ToLower(m)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
