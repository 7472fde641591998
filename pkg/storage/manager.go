package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Manager writes result files into a single output directory
type Manager struct {
	outputDir string
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates a new storage manager, creating dir when missing
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		saved:     make(map[string]bool),
	}, nil
}

// ResultFilename names a results file as <site>_search_<parts>_<count>.json.
// Spaces become underscores; path separators are replaced so the name stays
// inside the output directory.
func ResultFilename(site string, count int, parts ...string) string {
	fields := []string{site, "search"}
	for _, p := range parts {
		p = strings.ReplaceAll(p, " ", "_")
		p = strings.ReplaceAll(p, "/", "_")
		p = strings.ReplaceAll(p, string(filepath.Separator), "_")
		fields = append(fields, p)
	}
	fields = append(fields, strconv.Itoa(count))
	return strings.Join(fields, "_") + ".json"
}

// Path returns where name would be written
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// Exists reports whether name is already present in the output directory
func (m *Manager) Exists(name string) bool {
	m.mu.RLock()
	known := m.saved[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	_, err := os.Stat(m.Path(name))
	return err == nil
}

// SaveJSON writes v as indented JSON to name and returns the file path.
// The write goes to a temporary file first and is renamed into place.
func (m *Manager) SaveJSON(name string, v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	filename := m.Path(name)
	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0644); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved[name] = true
	m.mu.Unlock()

	return filename, nil
}

// GetSavedCount returns how many files this manager has written
func (m *Manager) GetSavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
