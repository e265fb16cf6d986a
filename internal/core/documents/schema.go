package documents

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"Tutter/internal/core/docstore"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

// Collections accepted by the service
var Collections = []string{docstore.CollectionPosts, docstore.CollectionUsers}

// SchemaSet validates documents per collection
type SchemaSet struct {
	schemas map[string]*gojsonschema.Schema
}

// LoadSchemas compiles the schema of every collection.
// When dir is non-empty, <dir>/<collection>.json replaces the built-in schema.
func LoadSchemas(dir string) (*SchemaSet, error) {
	set := &SchemaSet{schemas: make(map[string]*gojsonschema.Schema, len(Collections))}

	for _, collection := range Collections {
		raw, err := readSchema(dir, collection)
		if err != nil {
			return nil, err
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", collection, err)
		}
		set.schemas[collection] = schema
	}

	return set, nil
}

func readSchema(dir, collection string) ([]byte, error) {
	name := collection + ".json"
	if dir != "" {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return raw, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s schema: %w", collection, err)
		}
	}
	raw, err := embeddedSchemas.ReadFile("schemas/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read built-in %s schema: %w", collection, err)
	}
	return raw, nil
}

// Has reports whether the collection is known
func (s *SchemaSet) Has(collection string) bool {
	_, ok := s.schemas[collection]
	return ok
}

// Validate checks a whole document body against its collection schema
func (s *SchemaSet) Validate(collection string, fields docstore.Fields) error {
	schema, ok := s.schemas[collection]
	if !ok {
		return ErrUnknownCollection
	}
	if fields == nil {
		fields = docstore.Fields{}
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}
	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return NewValidationError("fields", strings.Join(errorMessages, "; "))
	}
	return nil
}
