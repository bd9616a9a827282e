package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joeycumines/cliplay/internal/storage"
)

// SetKeyInFile sets key to value inside section ("" for global) of the file
// at path, preserving comments and layout. An existing entry is rewritten in
// place; a new one goes after the last non-blank line of its section, and a
// missing section is appended. The file is replaced atomically.
func SetKeyInFile(path, section, key, value string) error {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}

	var lines []string
	if len(data) > 0 {
		lines = strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	}

	entry := key
	if value != "" {
		entry = key + " " + value
	}

	start, end, found := sectionBounds(lines, section)
	if !found {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "["+section+"]", entry)
		return write(path, lines)
	}

	for i := start; i < end; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if name, _, _ := strings.Cut(trimmed, " "); name == key {
			lines[i] = entry
			return write(path, lines)
		}
	}

	at := end
	for at > start && strings.TrimSpace(lines[at-1]) == "" {
		at--
	}
	return write(path, slices.Insert(lines, at, entry))
}

// sectionBounds returns the half-open range of body lines belonging to
// section. The global section always exists and ends at the first header.
func sectionBounds(lines []string, section string) (start, end int, found bool) {
	found = section == ""
	end = len(lines)
	inside := found
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
			continue
		}
		if inside {
			return start, i, true
		}
		if strings.TrimSpace(trimmed[1:len(trimmed)-1]) == section {
			start, inside, found = i+1, true, true
		}
	}
	return start, end, found
}

func write(path string, lines []string) error {
	return storage.AtomicWriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
