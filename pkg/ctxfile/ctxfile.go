// Package ctxfile loads template contexts from JSON, YAML or Starlark files.
package ctxfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/neurodesk/vltemplate/pkg/engine"
	"github.com/neurodesk/vltemplate/pkg/starlark"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions Load understands.
var Extensions = []string{".json", ".yaml", ".yml", ".star"}

// LoadAll loads paths in order and merges them into one context; keys from
// later files win. A Starlark script sees everything merged before it as
// predeclared globals, so it can derive values from data files.
func LoadAll(paths []string, log *slog.Logger) (engine.Context, error) {
	merged := engine.Context{}
	for _, path := range paths {
		ctx, err := Load(path, merged, log)
		if err != nil {
			return nil, err
		}
		maps.Copy(merged, ctx)
	}
	return merged, nil
}

// Load reads a context file, picking the decoder from the file extension.
// The top level of a JSON or YAML document must be a mapping. base is only
// consulted by Starlark scripts and may be nil.
func Load(path string, base engine.Context, log *slog.Logger) (engine.Context, error) {
	if log == nil {
		log = slog.Default()
	}
	ext := strings.ToLower(filepath.Ext(path))
	log.Debug("loading context", "path", path, "format", strings.TrimPrefix(ext, "."))

	switch ext {
	case ".star":
		eval := starlark.NewEvaluator(log)
		eval.LoadContext(base)
		if _, err := eval.ExecFile(path, nil); err != nil {
			return nil, fmt.Errorf("loading context %s: %w", path, err)
		}
		return eval.Export(), nil
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("loading context %s: unsupported extension %q", path, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading context: %w", err)
	}
	var m map[string]any
	if ext == ".json" {
		m, err = decodeJSON(data)
	} else {
		m, err = decodeYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("loading context %s: %w", path, err)
	}
	return engine.NewContext(m), nil
}

// Parse decodes an in-memory JSON document into a context.
func Parse(data []byte) (engine.Context, error) {
	m, err := decodeJSON(data)
	if err != nil {
		return nil, err
	}
	return engine.NewContext(m), nil
}

func decodeJSON(data []byte) (map[string]any, error) {
	var m map[string]any
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	return m, nil
}

func decodeYAML(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return m, nil
}
