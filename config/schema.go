package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// channelsSchema validates the channels document before anything else reads
// it, so malformed configuration fails at startup with a precise error
// instead of surfacing as odd reconciler behavior later.
const channelsSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"title": "stickybot channels document",
	"type": "object",
	"properties": {
		"token": {
			"type": "string"
		},
		"channels": {
			"type": "object",
			"minProperties": 1,
			"propertyNames": {
				"pattern": "^\\S+$"
			},
			"additionalProperties": {
				"type": "string",
				"minLength": 1
			}
		}
	},
	"required": ["channels"],
	"additionalProperties": false
}`

const channelsSchemaURL = "stickybot://channels.schema.json"

// ValidateChannelsDocument checks the raw channels document against the
// embedded JSON schema.
func ValidateChannelsDocument(raw []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(channelsSchema))
	if err != nil {
		return fmt.Errorf("failed to parse embedded channels schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(channelsSchemaURL, schemaDoc); err != nil {
		return fmt.Errorf("failed to register channels schema: %w", err)
	}

	schema, err := compiler.Compile(channelsSchemaURL)
	if err != nil {
		return fmt.Errorf("failed to compile channels schema: %w", err)
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("channels document is not valid JSON: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("channels document failed validation: %w", err)
	}
	return nil
}
