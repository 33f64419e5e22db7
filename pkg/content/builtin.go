package content

import (
	_ "embed"
	"fmt"
)

//go:embed data/lifeskills.yaml
var builtinYAML []byte

// Builtin returns the reference life-skills catalog shipped with the engine.
func Builtin() (*Catalog, error) {
	def, err := ParseDefinition(builtinYAML, FormatYAML)
	if err != nil {
		return nil, fmt.Errorf("builtin content: %w", err)
	}
	return NewCatalog(*def)
}
