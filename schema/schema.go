// Package schema reflects Go structs into JSON schemas suitable for
// function-call parameter declarations, both for LLM tool definitions and
// for MCP tool registration.
package schema

import (
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/abrachat/abrachat/llmutils"
)

var (
	cache   = make(map[reflect.Type]*Schema)
	cacheMu sync.Mutex
)

type Schema struct {
	*jsonschema.Schema
	// Parameters is the flattened function parameters definition:
	// a single object schema with inlined property definitions.
	Parameters *jsonschema.Schema
}

// New creates a schema for the given type. Results are cached per type.
func New(t reflect.Type) (*Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if s, ok := cache[t]; ok {
		return s, nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}
	cache[t] = s

	return s, nil
}

func (s *Schema) String() string {
	return llmutils.ToJSONIndent(s.Parameters)
}

func buildSchema(t reflect.Type) (*Schema, error) {
	refl := JSONSchema(t)

	funcDef, err := ToFunctionSchema(refl)
	if err != nil {
		return nil, err
	}
	return &Schema{
		Schema:     refl,
		Parameters: funcDef,
	}, nil
}

// ToFunctionSchema flattens a reflected schema into a single object
// definition with all $ref entries resolved inline.
func ToFunctionSchema(tSchema *jsonschema.Schema) (*jsonschema.Schema, error) {
	rootID := strings.TrimPrefix(tSchema.Ref, "#/$defs/")

	defs := make(map[string]*jsonschema.Schema)
	var root *jsonschema.Schema

	for name, def := range tSchema.Definitions {
		if name == rootID {
			root = def
		} else {
			defs[name] = def
		}
	}
	if root == nil {
		return nil, errors.Newf("schema: root definition %q not found", rootID)
	}

	res := &jsonschema.Schema{
		Type:       root.Type,
		Properties: root.Properties,
		Required:   root.Required,
	}
	if err := resolveRefs(res.Properties, defs); err != nil {
		return nil, err
	}
	return res, nil
}

func resolveRefs(props *orderedmap.OrderedMap[string, *jsonschema.Schema], defs map[string]*jsonschema.Schema) error {
	if props == nil {
		return nil
	}
	for pair := props.Oldest(); pair != nil; pair = pair.Next() {
		child := pair.Value
		if child.Ref != "" {
			name := strings.TrimPrefix(child.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.Newf("schema: unresolved reference %q", child.Ref)
			}
			pair.Value = def
			child = def
		}
		if child.Properties != nil {
			if err := resolveRefs(child.Properties, defs); err != nil {
				return err
			}
		}
		if child.Items != nil && child.Items.Ref != "" {
			name := strings.TrimPrefix(child.Items.Ref, "#/$defs/")
			def, ok := defs[name]
			if !ok {
				return errors.Newf("schema: unresolved reference %q", child.Items.Ref)
			}
			child.Items = def
		}
	}
	return nil
}

// JSONSchema reflects the raw JSON schema of t.
func JSONSchema(t reflect.Type) *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	// Struct names can repeat across packages; qualify them to keep
	// $ref targets unique.
	r.Namer = func(t reflect.Type) string {
		name := t.Name()
		if t.Kind() == reflect.Struct {
			path := t.PkgPath()
			if i := strings.LastIndex(path, "/"); i >= 0 {
				path = path[i+1:]
			}
			if path != "" {
				name = path + "_" + name
			}
		}
		return name
	}
	return r.ReflectFromType(t)
}
