package llm

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap". Data that is not JSON
// or breaks the schema is an ErrSchemaValidation; a schema that does not compile is not.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return common.WrapError(err, "marshal schema")
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return common.WrapError(err, "add schema")
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return common.WrapError(err, "compile schema")
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return common.NewSchemaValidationError("data is not json", err)
	}
	if err := schema.Validate(v); err != nil {
		return common.NewSchemaValidationError("json does not match schema", err)
	}
	return nil
}
