package internal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/AeonDave/svxor/obf"
)

// Manifest is the YAML alternative to a literal file.
//
//	package: main
//	mode: heavy
//	strings:
//	  - name: sysNet
//	    value: sys_net
//	    id: 0x0000
type Manifest struct {
	Package string          `yaml:"package"`
	Mode    string          `yaml:"mode,omitempty"`
	Strings []ManifestEntry `yaml:"strings"`
}

type ManifestEntry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Mode  string `yaml:"mode,omitempty"`
	ID    *int   `yaml:"id,omitempty"`
}

// ParseManifest decodes a manifest, rejecting unknown fields.
func ParseManifest(src []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, err
	}
	if m.Package == "" {
		return nil, errors.New("manifest has no package")
	}
	return &m, nil
}

// loadManifest reads path and converts its entries into literals.
func loadManifest(path string, defaultMode obf.Mode) (string, []*Literal, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := ParseManifest(src)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	mode := defaultMode
	if m.Mode != "" {
		if mode, err = obf.ParseMode(m.Mode); err != nil {
			return "", nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	base := filepath.Base(path)
	literals := make([]*Literal, 0, len(m.Strings))
	for i, entry := range m.Strings {
		lit := &Literal{
			Name:   entry.Name,
			Value:  entry.Value,
			Mode:   mode,
			Source: fmt.Sprintf("%s#%d", base, i),
		}
		if entry.Mode != "" {
			if lit.Mode, err = obf.ParseMode(entry.Mode); err != nil {
				return "", nil, fmt.Errorf("%s: entry %q: %w", path, entry.Name, err)
			}
		}
		if entry.ID != nil {
			lit.ID, lit.HasID = *entry.ID, true
		}
		literals = append(literals, lit)
	}
	return m.Package, literals, nil
}
