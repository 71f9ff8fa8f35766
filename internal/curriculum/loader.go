// Package curriculum loads theory units from YAML files and grades their
// end-of-unit quizzes.
package curriculum

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Loader loads and caches curriculum content from the filesystem.
type Loader struct {
	rootDir string
	units   map[string]Unit
	mu      sync.RWMutex

	schema *gojsonschema.Schema
}

// NewLoader creates a new curriculum loader and loads all content.
func NewLoader(rootDir string) (*Loader, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(unitSchema))
	if err != nil {
		return nil, fmt.Errorf("compiling unit schema: %w", err)
	}

	l := &Loader{
		rootDir: rootDir,
		units:   make(map[string]Unit),
		schema:  schema,
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading curriculum: %w", err)
	}
	if len(l.units) == 0 {
		return nil, fmt.Errorf("no units found in %s", rootDir)
	}

	slog.Info("curriculum loaded", "units", len(l.units))
	return l, nil
}

// GetUnit returns a unit by ID.
func (l *Loader) GetUnit(id string) (Unit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	u, ok := l.units[id]
	return u, ok
}

// Units returns all loaded units in curriculum order.
func (l *Loader) Units() []Unit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	units := make([]Unit, 0, len(l.units))
	for _, u := range l.units {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].Order < units[j].Order
	})
	return units
}

// Grade checks a full set of quiz answers against a unit. The quiz passes
// only when every question is answered correctly.
func Grade(u Unit, answers []int) bool {
	if len(answers) != len(u.Quiz) {
		return false
	}
	for i, q := range u.Quiz {
		if answers[i] != q.Answer {
			return false
		}
	}
	return true
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return l.loadUnit(path)
		}
		return nil
	})
}

func (l *Loader) loadUnit(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := l.validate(data); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	var unit Unit
	if err := yaml.Unmarshal(data, &unit); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	for i, q := range unit.Quiz {
		if q.Answer >= len(q.Options) {
			return fmt.Errorf("%s: quiz question %d: answer index out of range", filepath.Base(path), i+1)
		}
	}

	l.mu.Lock()
	l.units[unit.ID] = unit
	l.mu.Unlock()

	return nil
}

// validate runs the JSON Schema over the YAML document. YAML decodes into
// plain maps and slices, which marshal straight back to JSON.
func (l *Loader) validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting to JSON: %w", err)
	}

	result, err := l.schema.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid unit: %s", strings.Join(msgs, "; "))
	}
	return nil
}
