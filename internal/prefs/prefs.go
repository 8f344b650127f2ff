// Package prefs persists invoicer user preferences between sessions.
// Preferences are stored in ~/.config/invoicer/prefs.toml.
package prefs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for invoicer.
type Prefs struct {
	Theme string `toml:"theme"`
	// PageSizes remembers the last page size chosen per resource kind,
	// keyed by kind name ("customers", "products", "invoices").
	PageSizes map[string]int `toml:"page_sizes,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/invoicer/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// PageSize returns the remembered page size for kind, or fallback.
func (p Prefs) PageSize(kind string, fallback int) int {
	switch n := p.PageSizes[kind]; n {
	case 10, 20, 50:
		return n
	default:
		return fallback
	}
}

// WithPageSize returns a copy of p recording size for kind.
func (p Prefs) WithPageSize(kind string, size int) Prefs {
	sizes := make(map[string]int, len(p.PageSizes)+1)
	for k, v := range p.PageSizes {
		sizes[k] = v
	}
	sizes[kind] = size
	p.PageSizes = sizes
	return p
}

// Load reads preferences from the given path. Any problem reading or parsing
// the file yields defaults; prefs are never worth failing startup over.
func Load(path string) (Prefs, error) {
	prefs := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs, nil
	}

	file, err := os.Open(resolved)
	if err != nil {
		return prefs, nil
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
