package canonical

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Contract declares which parts of a document are volatile. Volatile key
// paths are stripped before canonicalization and hashing; the numeric
// tolerance applies only when comparing two documents, never when hashing.
//
// A volatile path is either a dot-separated key path anchored at the
// document root ("meta.generated_at"), or a bare key name that matches that
// key in any mapping at any depth ("run_id").
type Contract struct {
	Name      string   `json:"name,omitempty" yaml:"name,omitempty"`
	Volatile  []string `json:"volatile,omitempty" yaml:"volatile,omitempty"`
	Tolerance float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
}

// LoadContract reads a determinism contract from a YAML or JSON file.
// Format is detected by extension (.yaml/.yml/.json) or, failing that, by
// the first non-whitespace character of the content.
func LoadContract(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contract: %w", err)
	}
	return ParseContract(data, filepath.Ext(path))
}

// ParseContract parses contract bytes. ext is a format hint (".json",
// ".yaml"); empty means detect from content.
func ParseContract(data []byte, ext string) (*Contract, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	if ext == "" {
		if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
			ext = ".json"
		} else {
			ext = ".yaml"
		}
	}
	var c Contract
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse contract json: %w", err)
		}
	case ".yaml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse contract yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse contract: unsupported format %q", ext)
	}
	return &c, nil
}

// strip returns v with volatile keys removed. trail is the key path from
// the root to v, nil at the root. The input tree is never mutated.
func (c *Contract) strip(v any, trail []string) any {
	if c == nil || len(c.Volatile) == 0 {
		return v
	}
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			next := append(trail[:len(trail):len(trail)], k)
			if c.volatileKey(next) {
				continue
			}
			out[k] = c.strip(child, next)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			// Sequence indices do not extend the key path; volatile
			// declarations bind to mapping keys only.
			out[i] = c.strip(child, trail)
		}
		return out
	default:
		return v
	}
}

func (c *Contract) volatileKey(trail []string) bool {
	joined := strings.Join(trail, ".")
	leaf := trail[len(trail)-1]
	for _, p := range c.Volatile {
		if p == joined {
			return true
		}
		if !strings.Contains(p, ".") && p == leaf {
			return true
		}
	}
	return false
}
