// ABOUTME: Loads exercise catalog seed files written in YAML.
// ABOUTME: Documents are checked against an embedded CUE schema before decoding.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/harperreed/lift/internal/models"
)

//go:embed schema.cue
var schemaSource string

type seedFile struct {
	Exercises []models.Exercise `yaml:"exercises"`
}

// LoadFile reads and validates a YAML seed file.
func LoadFile(path string) ([]models.Exercise, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	exercises, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return exercises, nil
}

// Parse validates a YAML seed document and decodes its exercises.
func Parse(data []byte) ([]models.Exercise, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode exercises: %w", err)
	}

	seen := make(map[string]bool, len(f.Exercises))
	for _, ex := range f.Exercises {
		if seen[ex.ID] {
			return nil, fmt.Errorf("duplicate exercise id %q", ex.ID)
		}
		seen[ex.ID] = true
	}
	return f.Exercises, nil
}

func validate(doc any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("failed to compile seed schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Catalog"))

	val := ctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to encode seed: %w", err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid seed: %w", err)
	}
	return nil
}
