package vocabulary

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"tutor/internal/domain"
)

type termFile struct {
	Terms []domain.VocabularyTerm `yaml:"terms" toml:"terms"`
}

// ReadTerms parses a vocabulary file. The format is chosen by extension:
// .toml for TOML, anything else is read as YAML.
func ReadTerms(path string) ([]domain.VocabularyTerm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	var f termFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	return f.Terms, nil
}

// LoadFile builds an Index from the built-in vocabulary extended with the
// terms in path. File entries override built-in entries of the same key.
func LoadFile(path string, opts ...Option) (*Index, error) {
	terms, err := ReadTerms(path)
	if err != nil {
		return nil, err
	}
	return New(MergeTerms(Builtin(), terms), opts...)
}
