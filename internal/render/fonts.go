package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// DefaultFamily is used whenever a requested family is unknown.
const DefaultFamily = "Go"

// Common CSS family names mapped onto the embedded families.
var familyAliases = map[string]string{
	"sans-serif": "go",
	"serif":      "go",
	"arial":      "go",
	"helvetica":  "go",
	"monospace":  "go mono",
	"courier":    "go mono",
	"impact":     "go medium",
}

type fontFamily struct {
	name    string
	regular *truetype.Font
	bold    *truetype.Font // nil: bold falls back to regular
}

// FontRegistry owns the parsed fonts available to measurement and drawing.
// Parsed *truetype.Font values are read-only and shared between goroutines;
// faces are not and are created per user.
type FontRegistry struct {
	mu       sync.RWMutex
	families map[string]*fontFamily
	Logger   Logger
}

// NewFontRegistry returns a registry preloaded with the embedded Go fonts.
func NewFontRegistry() (*FontRegistry, error) {
	r := &FontRegistry{families: map[string]*fontFamily{}, Logger: noopLogger{}}
	builtin := []struct {
		name          string
		regular, bold []byte
	}{
		{"Go", goregular.TTF, gobold.TTF},
		{"Go Medium", gomedium.TTF, gobold.TTF},
		{"Go Mono", gomono.TTF, gomonobold.TTF},
		{"Go Smallcaps", gosmallcaps.TTF, nil},
	}
	for _, b := range builtin {
		if err := r.Register(b.name, b.regular, b.bold); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register parses and adds a family. boldTTF may be nil.
func (r *FontRegistry) Register(name string, regularTTF, boldTTF []byte) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("font family name is empty")
	}
	regular, err := truetype.Parse(regularTTF)
	if err != nil {
		return fmt.Errorf("parse %s regular: %w", name, err)
	}
	fam := &fontFamily{name: name, regular: regular}
	if len(boldTTF) > 0 {
		bold, err := truetype.Parse(boldTTF)
		if err != nil {
			return fmt.Errorf("parse %s bold: %w", name, err)
		}
		fam.bold = bold
	}

	r.mu.Lock()
	if existing, ok := r.families[familyKey(name)]; ok && fam.bold == nil {
		fam.bold = existing.bold
	}
	r.families[familyKey(name)] = fam
	r.mu.Unlock()
	return nil
}

// LoadDir registers every .ttf in dir. "Name-Bold.ttf" becomes the bold face
// of "Name"; anything else is the regular face of its base name.
func (r *FontRegistry) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read font dir: %w", err)
	}
	regular := map[string][]byte{}
	bold := map[string][]byte{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".ttf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if i := strings.LastIndex(strings.ToLower(base), "-bold"); i > 0 && i == len(base)-len("-bold") {
			bold[base[:i]] = data
			continue
		}
		regular[base] = data
	}
	for name, data := range regular {
		if err := r.Register(name, data, bold[name]); err != nil {
			r.Logger.Errorf("fonts", "skip %s: %v", name, err)
			continue
		}
		r.Logger.Infof("fonts", "registered %s from %s", name, dir)
	}
	return nil
}

// Families lists registered family names, sorted.
func (r *FontRegistry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, f.name)
	}
	sort.Strings(out)
	return out
}

// Font resolves family (case-insensitive, with aliases) to a parsed font.
// Unknown families fall back to DefaultFamily.
func (r *FontRegistry) Font(family string, bold bool) (*truetype.Font, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := familyKey(family)
	fam, ok := r.families[key]
	if !ok {
		if alias, found := familyAliases[key]; found {
			fam, ok = r.families[alias]
		}
	}
	if !ok {
		fam, ok = r.families[familyKey(DefaultFamily)]
	}
	if !ok || fam.regular == nil {
		return nil, fmt.Errorf("no font for family %q", family)
	}
	if bold && fam.bold != nil {
		return fam.bold, nil
	}
	return fam.regular, nil
}

func familyKey(name string) string {
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	return strings.ToLower(name)
}
