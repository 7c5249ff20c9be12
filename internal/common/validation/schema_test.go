package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustCompile(map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"caseId"},
	"properties": map[string]interface{}{
		"caseId":  map[string]interface{}{"type": "string", "minLength": 1},
		"benefit": map[string]interface{}{"type": "string", "enum": []interface{}{"PIP", "ESA"}},
	},
})

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name     string
		document string
		valid    bool
		code     string
	}{
		{name: "valid", document: `{"caseId":"1001","benefit":"PIP"}`, valid: true},
		{name: "missing required", document: `{"benefit":"PIP"}`, code: "REQUIRED_FIELD_MISSING"},
		{name: "wrong type", document: `{"caseId":1001}`, code: "INVALID_TYPE"},
		{name: "empty string", document: `{"caseId":""}`, code: "MIN_LENGTH_VIOLATION"},
		{name: "not in enum", document: `{"caseId":"1001","benefit":"UC"}`, code: "ENUM_VIOLATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := testSchema.ValidateJSON(tt.document)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				require.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.code, result.Errors[0].Code)
			}
		})
	}
}

func TestValidateJSON_Unparseable(t *testing.T) {
	_, err := testSchema.ValidateJSON(`{"caseId":`)
	assert.Error(t, err)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}

func TestFormatValidationErrors(t *testing.T) {
	assert.Empty(t, FormatValidationErrors(nil))
	assert.Equal(t, "caseId: required; benefit: bad",
		FormatValidationErrors([]ValidationError{
			{Field: "caseId", Message: "required"},
			{Field: "benefit", Message: "bad"},
		}))
}
