// Package notify mails plant contacts and auditors about newly delivered
// files and the day's validation outcome.
package notify

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Monitor tracks which files under each watched directory have already been
// reported. Seen sets persist in one JSON state file keyed by directory.
type Monitor struct {
	stateFile string
}

func NewMonitor(stateFile string) *Monitor {
	return &Monitor{stateFile: stateFile}
}

// Scan lists every file currently under dir, recursively, in sorted order.
// A missing directory is reported as empty so a plant that never delivered
// still produces a notification.
func (m *Monitor) Scan(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("watched directory does not exist", "dir", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// NewFiles returns the files in current that the saved state for dir has not
// seen yet. The state is only read here; SaveState records it.
func (m *Monitor) NewFiles(dir string, current []string) []string {
	seen := make(map[string]struct{})
	for _, file := range m.loadState()[dir] {
		seen[file] = struct{}{}
	}

	var fresh []string
	for _, file := range current {
		if _, ok := seen[file]; !ok {
			fresh = append(fresh, file)
		}
	}
	return fresh
}

// SaveState records current as the seen set for dir. Entries for other
// directories are preserved, so plants sharing one state file do not clobber
// each other.
func (m *Monitor) SaveState(dir string, current []string) error {
	state := m.loadState()
	sorted := append(make([]string, 0, len(current)), current...)
	sort.Strings(sorted)
	state[dir] = sorted

	if parent := filepath.Dir(m.stateFile); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode monitor state: %w", err)
	}
	if err := os.WriteFile(m.stateFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write monitor state: %w", err)
	}
	return nil
}

// loadState reads the full state map. A missing or unreadable file degrades
// to an empty map: every current file counts as new on the next pass.
func (m *Monitor) loadState() map[string][]string {
	data, err := os.ReadFile(m.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to read monitor state", "file", m.stateFile, "error", err)
		}
		return map[string][]string{}
	}

	state := map[string][]string{}
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Error("failed to parse monitor state", "file", m.stateFile, "error", err)
		return map[string][]string{}
	}
	return state
}
