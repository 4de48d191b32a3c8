package save

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// HeaderSchema requires the root header every save document carries.
const HeaderSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["save-version", "save-timestamp"],
  "properties": {
    "save-version": {"type": "integer", "minimum": 0},
    "save-timestamp": {"type": "integer"}
  }
}`

// Validator checks documents against a compiled JSON schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a draft-07 schema given as JSON text.
func NewValidator(name, schemaJSON string) (*Validator, error) {
	comp := jsonschema.NewCompiler()
	comp.Draft = jsonschema.Draft7
	url := name + ".json"
	if err := comp.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	sch, err := comp.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Validator{schema: sch}, nil
}

// Validate checks the whole document regardless of the cursor position.
func (v *Validator) Validate(c *Context) error {
	if err := v.schema.Validate(sectionValue(c.root)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// sectionValue converts a section into the generic JSON shape the
// validator walks. Numbers become json.Number so integer checks hold.
func sectionValue(s *Section) map[string]any {
	out := make(map[string]any, len(s.entries))
	for _, e := range s.entries {
		if e.section != nil {
			out[e.key] = sectionValue(e.section)
			continue
		}
		switch e.val.kind {
		case kindString:
			out[e.key] = e.val.s
		case kindInt:
			out[e.key] = json.Number(strconv.FormatInt(e.val.i, 10))
		case kindUint:
			out[e.key] = json.Number(strconv.FormatUint(e.val.u, 10))
		case kindDouble:
			out[e.key] = json.Number(strconv.FormatFloat(e.val.f, 'g', -1, 64))
		case kindBool:
			out[e.key] = e.val.b
		}
	}
	return out
}
