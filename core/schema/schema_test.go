package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const snackSchema = `{
	"$id": "http://example.com/schemas/snack.json",
	"type": "object",
	"properties": {
		"title": { "type": "string" },
		"at_diet": { "type": "boolean" }
	},
	"required": ["title", "at_diet"]
}`

func TestValidator(t *testing.T) {
	v, err := NewValidator([]string{snackSchema})
	assert.Nil(t, err)

	assert.True(t, v.HasSchema("http://example.com/schemas/snack.json"))
	assert.False(t, v.HasSchema("http://example.com/schemas/unknown.json"))

	err = v.ValidateString(`{"title":"apple","at_diet":true}`, "http://example.com/schemas/snack.json")
	assert.Nil(t, err)

	// additional properties are tolerated
	err = v.ValidateString(`{"title":"apple","at_diet":true,"extra":42}`, "http://example.com/schemas/snack.json")
	assert.Nil(t, err)

	err = v.ValidateBytes([]byte(`{"title":"apple"}`), "http://example.com/schemas/snack.json")
	assert.NotNil(t, err)

	err = v.ValidateString(`{"title":"apple","at_diet":"yes"}`, "http://example.com/schemas/snack.json")
	assert.NotNil(t, err)

	err = v.ValidateString(`{}`, "http://example.com/schemas/unknown.json")
	assert.NotNil(t, err)
}

func TestNewValidatorRejectsBrokenSchemas(t *testing.T) {
	_, err := NewValidator([]string{`{"type": "object"}`})
	assert.NotNil(t, err, "schema without $id must be rejected")

	_, err = NewValidator([]string{`not json`})
	assert.NotNil(t, err)

	assert.Panics(t, func() { MustNewValidator([]string{`not json`}) })
}
