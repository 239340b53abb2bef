package workflows

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"mercator-hq/flowlog/pkg/config"
)

// MaxDefinitionSize bounds a single workflow file.
const MaxDefinitionSize = 4 << 20

// Definition is the source text of one workflow.
type Definition struct {
	// Name is the lookup key: the file name without its extension
	Name string

	// Path is the file the text was read from, empty for inline definitions
	Path string

	// Source is the workflow text
	Source string
}

// Catalog is an immutable name -> workflow definition mapping.
type Catalog struct {
	ext  string
	defs map[string]Definition
}

// NewCatalog builds a catalog from already loaded definitions. ext is the
// suffix stripped from lookup names (e.g. ".nf").
func NewCatalog(ext string, defs ...Definition) *Catalog {
	c := &Catalog{
		ext:  ext,
		defs: make(map[string]Definition, len(defs)),
	}
	for _, d := range defs {
		c.defs[d.Name] = d
	}
	return c
}

// LoadCatalog reads every workflow file in cfg.Dir, then the explicit
// cfg.Definitions on top. dir overrides cfg.Dir when non-empty (used when the
// directory lives inside a Git checkout).
func LoadCatalog(cfg *config.WorkflowsConfig, dir string) (*Catalog, error) {
	if dir == "" {
		dir = cfg.Dir
	}

	var defs []Definition

	if dir != "" {
		found, err := loadDir(dir, cfg.Extension)
		if err != nil {
			var loadErr *LoadError
			if !(cfg.Optional && errors.As(err, &loadErr) && loadErr.NotFound) {
				return nil, err
			}
		}
		defs = append(defs, found...)
	}

	names := make([]string, 0, len(cfg.Definitions))
	for name := range cfg.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := cfg.Definitions[name]
		source, err := readDefinition(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, Definition{
			Name:   strings.TrimSuffix(name, cfg.Extension),
			Path:   path,
			Source: source,
		})
	}

	return NewCatalog(cfg.Extension, defs...), nil
}

// Lookup returns the definition for name. A trailing extension is stripped
// once, so "exome.nf" and "exome" resolve to the same entry.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	d, ok := c.defs[c.normalize(name)]
	return d, ok
}

// Describe returns the workflow text, or a not-found message naming the
// normalized workflow.
func (c *Catalog) Describe(name string) string {
	if d, ok := c.Lookup(name); ok {
		return d.Source
	}
	return NotFoundMessage(c.normalize(name))
}

// Names returns the sorted workflow names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of workflows.
func (c *Catalog) Len() int {
	return len(c.defs)
}

func (c *Catalog) normalize(name string) string {
	if c.ext != "" {
		return strings.TrimSuffix(name, c.ext)
	}
	return name
}

// NotFoundMessage is the text returned for unknown workflows.
func NotFoundMessage(name string) string {
	return fmt.Sprintf("Workflow definition for %s not found.", name)
}

// loadDir reads the top-level files of dir that carry ext. Hidden files and
// subdirectories are skipped.
func loadDir(dir, ext string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{
			Path:     dir,
			Message:  "failed to read workflow directory",
			NotFound: os.IsNotExist(err),
			Cause:    err,
		}
	}

	var defs []Definition
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(name, ext) {
			continue
		}

		path := filepath.Join(dir, name)
		source, err := readDefinition(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, Definition{
			Name:   strings.TrimSuffix(name, ext),
			Path:   path,
			Source: source,
		})
	}

	return defs, nil
}

// readDefinition reads one workflow file after size and encoding checks.
func readDefinition(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &LoadError{
			Path:     path,
			Message:  "failed to access workflow file",
			NotFound: os.IsNotExist(err),
			Cause:    err,
		}
	}
	if !info.Mode().IsRegular() {
		return "", &LoadError{Path: path, Message: "not a regular file"}
	}
	if info.Size() > MaxDefinitionSize {
		return "", &LoadError{
			Path:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxDefinitionSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &LoadError{Path: path, Message: "failed to read workflow file", Cause: err}
	}
	if !utf8.Valid(data) {
		return "", &LoadError{Path: path, Message: "file contains invalid UTF-8 encoding"}
	}

	return string(data), nil
}

// LoadError represents a failure to read a workflow file or directory.
type LoadError struct {
	// Path is the file or directory that failed
	Path string

	// Message describes the failure
	Message string

	// NotFound is true when Path does not exist
	NotFound bool

	// Cause is the underlying error, if any
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workflow load error for %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("workflow load error for %q: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}
