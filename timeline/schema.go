package timeline

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema describes timeline files as JSON Schema.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		return t.Name()
	}
	return reflector.Reflect(&Description{})
}
