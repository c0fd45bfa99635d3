package examples

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedFile struct {
	Examples []Example `yaml:"examples"`
}

// DefaultSeed returns the examples bundled with the binary.
func DefaultSeed() ([]Example, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// LoadSeedFile reads examples from a YAML file on disk.
func LoadSeedFile(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

func LoadSeed(r io.Reader) ([]Example, error) {
	var sf seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	for i, ex := range sf.Examples {
		if strings.TrimSpace(ex.Context) == "" || strings.TrimSpace(ex.Question) == "" {
			return nil, fmt.Errorf("seed example %d: context and question are required", i)
		}
	}
	return sf.Examples, nil
}
