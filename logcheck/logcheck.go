// Package logcheck matches expected fragments against service log output.
package logcheck

import "strings"

// LinesSince returns the non-empty trimmed lines of logs that follow the last line
// containing marker, newest first. If no line contains marker, every line is returned.
func LinesSince(logs, marker string) []string {
	all := strings.Split(logs, "\n")
	var ret []string
	for i := len(all) - 1; i >= 0; i-- {
		line := strings.TrimSpace(all[i])
		if line == "" {
			continue
		}
		if marker != "" && strings.Contains(line, marker) {
			break
		}
		ret = append(ret, line)
	}
	return ret
}

// Missing returns the expected fragments that no line contains, in the order given.
// Blank fragments are ignored.
func Missing(lines, expected []string) []string {
	var ret []string
	for _, fragment := range expected {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		found := false
		for _, line := range lines {
			if strings.Contains(line, fragment) {
				found = true
				break
			}
		}
		if !found {
			ret = append(ret, fragment)
		}
	}
	return ret
}
