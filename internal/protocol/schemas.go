package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

var (
	schemaOnce sync.Once
	schemaErr  error

	connectionSchema *jsonschema.Schema
	castSchema       *jsonschema.Schema
)

func loadSchemas() {
	c := jsonschema.NewCompiler()
	names := []string{
		"connection.schema.json",
		"connection_response.schema.json",
		"cast.schema.json",
		"action.schema.json",
	}
	for _, name := range names {
		b, err := schemaFiles.ReadFile("schemas/" + name)
		if err != nil {
			schemaErr = fmt.Errorf("read embedded schema %s: %w", name, err)
			return
		}
		if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("add schema resource %s: %w", name, err)
			return
		}
	}
	connectionSchema, schemaErr = c.Compile("connection.schema.json")
	if schemaErr != nil {
		return
	}
	castSchema, schemaErr = c.Compile("cast.schema.json")
}

// ValidateConnection checks raw against the CONNECTION schema before it is
// unmarshalled into a ConnectionMsg, per spec §7's validation-error tier.
func ValidateConnection(raw []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	return validateJSON(connectionSchema, raw)
}

// ValidateCast checks raw against the CAST schema before it is unmarshalled
// into a CastMsg.
func ValidateCast(raw []byte) error {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	return validateJSON(castSchema, raw)
}

func validateJSON(s *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
