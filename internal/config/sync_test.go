// SPDX-License-Identifier: MPL-2.0

package config

import (
	"reflect"
	"strings"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// These tests keep the Go struct JSON tags and the CUE schema field names
// aligned; a mismatch would silently drop a setting on decode.

func extractCUEFields(t *testing.T, val cue.Value) map[string]bool {
	t.Helper()

	fields := make(map[string]bool)
	iter, err := val.Fields(cue.Definitions(false), cue.Optional(true))
	if err != nil {
		t.Fatalf("failed to iterate CUE fields: %v", err)
	}
	for iter.Next() {
		sel := iter.Selector()
		if sel.LabelType().IsHidden() || sel.IsDefinition() {
			continue
		}
		fields[strings.TrimSuffix(sel.String(), "?")] = iter.IsOptional()
	}
	return fields
}

func extractGoJSONTags(t *testing.T, typ reflect.Type) map[string]bool {
	t.Helper()

	if typ.Kind() != reflect.Struct {
		t.Fatalf("expected struct type, got %s", typ.Kind())
	}

	fields := make(map[string]bool)
	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}
		fields[name] = true
	}
	return fields
}

func TestSchemaSync(t *testing.T) {
	t.Parallel()

	schema := cuecontext.New().CompileString(configSchema)
	if schema.Err() != nil {
		t.Fatalf("failed to compile CUE schema: %v", schema.Err())
	}

	tests := []struct {
		definition string
		typ        reflect.Type
	}{
		{"#Config", reflect.TypeFor[Config]()},
		{"#UIConfig", reflect.TypeFor[UIConfig]()},
		{"#ToolConfig", reflect.TypeFor[ToolConfig]()},
		{"#SourceConfig", reflect.TypeFor[SourceConfig]()},
		{"#DockerConfig", reflect.TypeFor[DockerConfig]()},
		{"#NativeConfig", reflect.TypeFor[NativeConfig]()},
		{"#GenerationsConfig", reflect.TypeFor[GenerationsConfig]()},
		{"#JavaGeneration", reflect.TypeFor[JavaGeneration]()},
		{"#JavaTablesGeneration", reflect.TypeFor[JavaTablesGeneration]()},
		{"#TypescriptGeneration", reflect.TypeFor[TypescriptGeneration]()},
		{"#JavascriptGeneration", reflect.TypeFor[JavascriptGeneration]()},
		{"#SQLGeneration", reflect.TypeFor[SQLGeneration]()},
	}

	for _, tt := range tests {
		t.Run(tt.definition, func(t *testing.T) {
			t.Parallel()

			def := schema.LookupPath(cue.ParsePath(tt.definition))
			if def.Err() != nil {
				t.Fatalf("failed to lookup CUE definition %s: %v", tt.definition, def.Err())
			}
			cueFields := extractCUEFields(t, def)
			goFields := extractGoJSONTags(t, tt.typ)

			for field := range cueFields {
				if _, ok := goFields[field]; !ok {
					t.Errorf("[%s] CUE field %q not found in Go struct (missing JSON tag)", tt.typ.Name(), field)
				}
			}
			for field := range goFields {
				if _, ok := cueFields[field]; !ok {
					t.Errorf("[%s] Go JSON tag %q not found in CUE schema (missing CUE field)", tt.typ.Name(), field)
				}
			}
		})
	}
}

func TestSchemaRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"unknown platform", `platform: "podman"`},
		{"unknown field", `colour: "blue"`},
		{"empty charset", `charset: ""`},
		{"bad build mode", `docker: image_build_mode: "always"`},
		{"bad duration", `docker: pull_timeout: "ten minutes"`},
		{"bad version", `adl: version: "../1.0"`},
		{"empty output dir", `generations: sql: [{output_dir: ""}]`},
		{"unknown generation field", `generations: java: [{output_dir: "out", packge: "x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := cuecontext.New()
			schema := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
			user := ctx.CompileString(tt.input)
			if user.Err() != nil {
				t.Fatalf("test input does not compile: %v", user.Err())
			}
			if err := schema.Unify(user).Validate(cue.Concrete(false)); err == nil {
				t.Errorf("expected %s to be rejected", tt.input)
			}
		})
	}
}
