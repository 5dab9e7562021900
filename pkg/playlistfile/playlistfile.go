// Package playlistfile parses favorites and local playlist files. Several
// line conventions are accepted; malformed lines are skipped, never fatal.
package playlistfile

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Entry is one named URL from a playlist or favorites file.
type Entry struct {
	Name string
	URL  string
}

// Separators tried in order on plain lines. `###` is the primary favorites
// convention; the rest are legacy fallbacks still found in the wild.
var separators = []string{"###", ":::", ";;", "::", ";"}

// Parse reads entries from any supported format: `name###url` favorites,
// `group:::name:::url` grouped lists with fallback separators, or an
// `#EXTM3U` playlist.
func Parse(r io.Reader) []Entry {
	var entries []Entry
	var pendingName string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "#EXTM3U" {
			continue
		}

		if strings.HasPrefix(line, "#EXTINF") {
			pendingName = extinfName(line)
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		// A bare URL after #EXTINF belongs to that entry
		if pendingName != "" {
			entries = append(entries, Entry{Name: pendingName, URL: line})
			pendingName = ""
			continue
		}

		if entry, ok := splitLine(line); ok {
			entries = append(entries, entry)
		}
	}

	return entries
}

// Load parses the file at path. A missing file yields no entries.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return Parse(f), nil
}

func splitLine(line string) (Entry, bool) {
	for _, sep := range separators {
		if !strings.Contains(line, sep) {
			continue
		}
		parts := strings.Split(line, sep)
		if len(parts) < 2 {
			continue
		}
		// Grouped form carries group:::name:::url; the group is dropped
		name := strings.TrimSpace(parts[len(parts)-2])
		url := strings.TrimSpace(parts[len(parts)-1])
		if name == "" || url == "" {
			return Entry{}, false
		}
		return Entry{Name: name, URL: url}, true
	}

	// A bare URL line names itself
	if strings.Contains(line, "://") {
		return Entry{Name: line, URL: line}, true
	}
	return Entry{}, false
}

// extinfName pulls the display name after the last comma of an #EXTINF line.
func extinfName(line string) string {
	if idx := strings.LastIndex(line, ","); idx >= 0 {
		if name := strings.TrimSpace(line[idx+1:]); name != "" {
			return name
		}
	}
	return "Unnamed"
}
