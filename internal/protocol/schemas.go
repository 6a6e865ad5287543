package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://tilecraft.ai/schemas/"

var (
	schemaOnce sync.Once
	schemaErr  error
	helloSch   *jsonschema.Schema
	actSch     *jsonschema.Schema
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	for _, name := range []string{"hello.schema.json", "act.schema.json"} {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(schemaBase+name, bytes.NewReader(b)); err != nil {
			schemaErr = fmt.Errorf("%s: %w", name, err)
			return
		}
	}
	if helloSch, schemaErr = c.Compile(schemaBase + "hello.schema.json"); schemaErr != nil {
		return
	}
	actSch, schemaErr = c.Compile(schemaBase + "act.schema.json")
}

func validate(s func() *jsonschema.Schema, raw []byte) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s().Validate(v)
}

// ValidateHello checks a raw HELLO frame against its schema.
func ValidateHello(raw []byte) error {
	return validate(func() *jsonschema.Schema { return helloSch }, raw)
}

// ValidateAct checks a raw ACT frame against its schema.
func ValidateAct(raw []byte) error {
	return validate(func() *jsonschema.Schema { return actSch }, raw)
}
