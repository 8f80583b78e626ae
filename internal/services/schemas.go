package services

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// compiledSchemas holds the validators for every LLM output shape,
// compiled once at startup.
type compiledSchemas struct {
	background  *jsonschema.Schema
	macroChain  *jsonschema.Schema
	nextScene   *jsonschema.Schema
	sceneDetail *jsonschema.Schema
	characters  *jsonschema.Schema
	regenField  *jsonschema.Schema
}

func loadSchemas() (*compiledSchemas, error) {
	compiler := jsonschema.NewCompiler()
	compile := func(name string) (*jsonschema.Schema, error) {
		data, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		schema, err := compiler.Compile(data)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		return schema, nil
	}

	var cs compiledSchemas
	var err error
	if cs.background, err = compile("background.json"); err != nil {
		return nil, err
	}
	if cs.macroChain, err = compile("macro_chain.json"); err != nil {
		return nil, err
	}
	if cs.nextScene, err = compile("next_scene.json"); err != nil {
		return nil, err
	}
	if cs.sceneDetail, err = compile("scene_detail.json"); err != nil {
		return nil, err
	}
	if cs.characters, err = compile("characters.json"); err != nil {
		return nil, err
	}
	if cs.regenField, err = compile("regen_field.json"); err != nil {
		return nil, err
	}
	return &cs, nil
}

func validateAgainst(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

// blockSchemaFiles maps block kind names, as used by the validate CLI, to
// their embedded schema files.
var blockSchemaFiles = map[string]string{
	"background":   "background.json",
	"macro_chain":  "macro_chain.json",
	"next_scene":   "next_scene.json",
	"scene_detail": "scene_detail.json",
	"characters":   "characters.json",
	"regen_field":  "regen_field.json",
}

// BlockSchemaKinds returns the block kind names accepted by
// ValidateBlockJSON.
func BlockSchemaKinds() []string {
	kinds := make([]string, 0, len(blockSchemaFiles))
	for k := range blockSchemaFiles {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ValidateBlockJSON checks data against the named generation schema.
func ValidateBlockJSON(kind string, data []byte) error {
	fileName, ok := blockSchemaFiles[kind]
	if !ok {
		return fmt.Errorf("unknown block kind %q (known: %s)", kind, strings.Join(BlockSchemaKinds(), ", "))
	}
	raw, err := schemaFS.ReadFile("schemas/" + fileName)
	if err != nil {
		return fmt.Errorf("read schema %s: %w", fileName, err)
	}
	schema, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", fileName, err)
	}
	return validateAgainst(schema, data)
}
