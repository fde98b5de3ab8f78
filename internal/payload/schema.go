package payload

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/rps.json
var rpsSchema []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func loadSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(rpsSchema))
	})
	return schema, schemaErr
}

// SchemaError lists the schema violations of a rejected document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "invalid RPS document: " + strings.Join(e.Problems, "; ")
}

// CheckSchema validates raw JSON against the RPS document schema. A
// violation is reported as *SchemaError.
func CheckSchema(raw []byte) error {
	s, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.Field()+": "+e.Description())
	}
	return &SchemaError{Problems: problems}
}

// Decode checks raw against the schema and decodes it.
func Decode(raw []byte) (Document, error) {
	var w Document
	if err := CheckSchema(raw); err != nil {
		return w, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&w); err != nil {
		return w, fmt.Errorf("decode RPS document: %w", err)
	}
	return w, nil
}
