package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/maestrohq/maestro/pkg/models"
)

// planSchema is the JSON schema for plan files. Payloads are validated
// against it before decoding, so shape errors surface as one readable
// message instead of a partial decode.
const planSchema = `{
  "type": "object",
  "required": ["name", "steps"],
  "properties": {
    "name": {"type": "string", "minLength": 3},
    "description": {"type": "string"},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "role"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "role": {"type": "string", "enum": ["analyst", "researcher", "data_analyst", "manager"]},
          "depends_on": {"type": "array", "items": {"type": "string"}},
          "retry_max": {"type": "integer", "minimum": 0},
          "timeout_seconds": {"type": "number", "minimum": 0},
          "checkpoint_phase": {"type": "string"}
        }
      }
    }
  }
}`

type planFile struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Steps       []models.Step `json:"steps"`
}

// Parse decodes a JSON plan document, validating it against the plan schema
// and then against the plan's own structural invariants.
func Parse(data []byte) (*models.Plan, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	var file planFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}

	p := models.NewPlan(file.Name, file.Description)

	for _, step := range file.Steps {
		if err := p.AddStep(step); err != nil {
			return nil, err
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// LoadFile reads and parses a plan from a JSON file.
func LoadFile(path string) (*models.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	return Parse(data)
}

func validateSchema(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(planSchema)
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var descs []string
		for _, desc := range result.Errors() {
			descs = append(descs, desc.String())
		}

		return fmt.Errorf("invalid plan document: %s", strings.Join(descs, "; "))
	}

	return nil
}
