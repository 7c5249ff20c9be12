// internal/workers/notification/process-case-event/schema.go
package processcaseevent

import (
	"fmt"

	"tya-notifications/internal/common/validation"
)

// inputSchema checks the shape of the job variables before they are decoded.
// Business rules on the case itself are left to the engine.
var inputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"eventType", "newCase"},
	"properties": map[string]interface{}{
		"eventType": map[string]interface{}{"type": "string"},
		"newCase": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"caseId"},
			"properties": map[string]interface{}{
				"caseId":        map[string]interface{}{"type": "string", "minLength": 1},
				"caseReference": map[string]interface{}{"type": "string"},
				"events":        map[string]interface{}{"type": "array"},
				"hearings":      map[string]interface{}{"type": "array"},
				"documents":     map[string]interface{}{"type": "array"},
			},
		},
		"oldCase": map[string]interface{}{"type": []interface{}{"object", "null"}},
	},
}

var compiledInputSchema = validation.MustCompile(inputSchema)

func validateVariables(variables string) error {
	result, err := compiledInputSchema.ValidateJSON(variables)
	if err != nil {
		return err
	}
	if result.Valid {
		return nil
	}
	return fmt.Errorf("%s", validation.FormatValidationErrors(result.Errors))
}
