// Package prompt holds the generation prompt templates and fills their
// {placeholder} variables.
package prompt

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

//go:embed templates
var templates embed.FS

// Methods.
const (
	MethodTruncate     = "truncate"
	MethodHierarchical = "hierarchical"
)

var ErrUnknownMethod = errors.New("unknown eval method")

// Set is the templates one eval method needs. Merge is only set for the
// hierarchical method.
type Set struct {
	General string
	Merge   string
}

// Load returns the built-in templates for method and task
// ("description" or "analysis").
func Load(method, task string) (Set, error) {
	if task == "" {
		task = "description"
	}
	switch method {
	case MethodTruncate:
		general, err := read(task, "truncate.txt")
		return Set{General: general}, err
	case MethodHierarchical:
		general, err := read(task, "hierarchical_general.txt")
		if err != nil {
			return Set{}, err
		}
		merge, err := read(task, "hierarchical_merge.txt")
		return Set{General: general, Merge: merge}, err
	}
	return Set{}, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

func read(task, name string) (string, error) {
	data, err := templates.ReadFile(path.Join("templates", task, name))
	if err != nil {
		return "", fmt.Errorf("no %s template for task %q: %w", name, task, err)
	}
	return string(data), nil
}

// LoadFile reads a template from disk.
func LoadFile(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template: %w", err)
	}
	return string(data), nil
}

// Format replaces each {name} in template with vars[name]. Unknown
// placeholders are left as they are.
func Format(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
