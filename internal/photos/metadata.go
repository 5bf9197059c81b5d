package photos

import (
	"regexp"
	"strings"
)

const metadataMarker = "---"

var metadataLine = regexp.MustCompile(`^\s*([A-Za-z_]+)\s*:\s*(.+?)\s*$`)

// ParseMetadata splits a description into its human-readable part and the
// key/value block that follows a line consisting of exactly "---".
//
//	Nice shot.
//	---
//	roll: paris-2024
//	film: portra400
//
// A marker on the first line makes the whole description metadata. Without a
// marker the description is returned unchanged and the map is empty.
func ParseMetadata(description string) (string, map[string]string) {
	metadata := make(map[string]string)

	start, end, found := findMarker(description)
	if !found {
		return description, metadata
	}

	clean := ""
	if start > 0 {
		clean = strings.TrimSpace(description[:start])
	}

	for _, line := range strings.Split(description[end:], "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := metadataLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		metadata[strings.ToLower(m[1])] = m[2]
	}

	return clean, metadata
}

// findMarker returns the byte range of the first marker line, including its
// trailing newline
func findMarker(s string) (start, end int, found bool) {
	for offset := 0; offset <= len(s); {
		lineEnd := strings.IndexByte(s[offset:], '\n')
		next := len(s)
		line := s[offset:]
		if lineEnd >= 0 {
			line = s[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		}

		if strings.TrimRight(line, "\r") == metadataMarker {
			return offset, next, true
		}

		if lineEnd < 0 {
			break
		}
		offset = next
	}
	return 0, 0, false
}
