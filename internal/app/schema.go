package app

import "github.com/invopop/jsonschema"

// CalculateRequestSchema returns the JSON Schema of CalculateRequest.
func CalculateRequestSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v CalculateRequest
	return reflector.Reflect(v)
}
