package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Definition represents one button glyph in the YAML manifest
type Definition struct {
	Name      string  `yaml:"name"`
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Preload   bool    `yaml:"preload,omitempty"`
}

// Manifest represents the structure of a template YAML file
type Manifest struct {
	Templates []Definition `yaml:"templates"`
}

// Registry manages the collection of button-glyph templates used by
// template matching. Glyphs come from a YAML manifest, a bare directory
// scan, or both; manifest entries win on name collisions because only
// they can carry per-glyph thresholds.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]Definition
	basePath string
	cache    *imageCache
}

// NewRegistry creates a registry rooted at basePath, the directory
// where glyph image files are stored
func NewRegistry(basePath string) *Registry {
	return &Registry{
		defs:     make(map[string]Definition),
		basePath: basePath,
		cache:    newImageCache(),
	}
}

// LoadManifest loads glyph definitions from a YAML manifest
func (r *Registry) LoadManifest(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read template manifest %s: %w", filePath, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to unmarshal template manifest: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, def := range manifest.Templates {
		if def.Name == "" {
			return fmt.Errorf("template %d in %s has no name", i, filePath)
		}
		if def.Path == "" {
			return fmt.Errorf("template %q in %s has no path", def.Name, filePath)
		}
		if !filepath.IsAbs(def.Path) {
			def.Path = filepath.Join(r.basePath, def.Path)
		}
		r.defs[def.Name] = def
	}
	return nil
}

// ScanDirectory registers every PNG under the base path that is not
// already defined by the manifest, named by its file stem
func (r *Registry) ScanDirectory() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to scan template directory %s: %w", r.basePath, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if _, exists := r.defs[name]; exists {
			continue
		}
		r.defs[name] = Definition{
			Name: name,
			Path: filepath.Join(r.basePath, entry.Name()),
		}
	}
	return nil
}

// Names returns all registered glyph names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Threshold returns the per-glyph match threshold, or 0 when the glyph
// carries none and the caller's default applies
func (r *Registry) Threshold(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defs[name].Threshold
}

// Preload loads the images of every glyph marked for preloading
func (r *Registry) Preload() error {
	r.mu.RLock()
	var toLoad []Definition
	for _, def := range r.defs {
		if def.Preload {
			toLoad = append(toLoad, def)
		}
	}
	r.mu.RUnlock()

	for _, def := range toLoad {
		if _, err := r.cache.get(def.Path); err != nil {
			return fmt.Errorf("failed to preload template %q: %w", def.Name, err)
		}
	}
	return nil
}

// Count returns the number of registered glyphs
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.defs)
}
