// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema cleans arbitrary JSON Schema tool definitions into the
// restricted dialect the Gemini v1internal endpoint accepts.
package schema

import (
	"fmt"
	"strings"
)

// validationFacets are simple-typed constraints folded into a human-readable
// "description" suffix instead of being dropped silently.
var validationFacets = []string{
	"pattern", "minLength", "maxLength", "minimum", "maximum",
	"minItems", "maxItems", "exclusiveMinimum", "exclusiveMaximum",
	"multipleOf", "format",
}

// blacklist are fields the upstream schema validator rejects outright.
var blacklist = map[string]struct{}{
	"$schema": {}, "additionalProperties": {}, "enumCaseInsensitive": {},
	"enumNormalizeWhitespace": {}, "uniqueItems": {}, "default": {}, "const": {},
	"examples": {}, "propertyNames": {}, "anyOf": {}, "oneOf": {}, "allOf": {},
	"not": {}, "if": {}, "then": {}, "else": {}, "dependencies": {},
	"dependentSchemas": {}, "dependentRequired": {}, "cache_control": {},
}

// Clean mutates schema in place: it inlines $ref/$defs/definitions, migrates
// simple validation facets into description text, strips fields the upstream
// rejects, and normalizes "type" to a singular lowercase string.
func Clean(schema map[string]any) {
	defs := flattenRefs(schema)
	clean(schema, defs)
}

// flattenRefs collects every named definition under $defs/definitions
// (recursively re-resolving nested $refs among them) and returns the merged
// table used to inline $ref pointers during the clean pass. Assumes the
// definitions form a DAG; cyclic $refs are not detected.
func flattenRefs(schema map[string]any) map[string]any {
	defs := map[string]any{}
	for _, key := range []string{"$defs", "definitions"} {
		sub, ok := schema[key].(map[string]any)
		if !ok {
			continue
		}
		for name, def := range sub {
			if _, exists := defs[name]; !exists {
				defs[name] = def
			}
		}
		delete(schema, key)
	}

	// Re-resolve $refs nested inside the definitions themselves.
	for name, def := range defs {
		if defObj, ok := def.(map[string]any); ok {
			resolveRefsIn(defObj, defs)
			defs[name] = defObj
		}
	}
	return defs
}

func resolveRefsIn(node map[string]any, defs map[string]any) {
	if ref, ok := node["$ref"].(string); ok {
		if resolved := lookupRef(ref, defs); resolved != nil {
			for k, v := range resolved {
				if _, exists := node[k]; !exists {
					node[k] = v
				}
			}
			delete(node, "$ref")
		}
	}
	for key, val := range node {
		if obj, ok := val.(map[string]any); ok {
			resolveRefsIn(obj, defs)
			node[key] = obj
		} else if arr, ok := val.([]any); ok {
			node[key] = resolveRefsInArray(arr, defs)
		}
	}
}

func resolveRefsInArray(arr []any, defs map[string]any) []any {
	for i, item := range arr {
		if obj, ok := item.(map[string]any); ok {
			resolveRefsIn(obj, defs)
			arr[i] = obj
		}
	}
	return arr
}

func lookupRef(ref string, defs map[string]any) map[string]any {
	name := ref
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		name = ref[idx+1:]
	}
	if def, ok := defs[name].(map[string]any); ok {
		return def
	}
	return nil
}

func clean(node map[string]any, defs map[string]any) {
	if ref, ok := node["$ref"].(string); ok {
		if resolved := lookupRef(ref, defs); resolved != nil {
			for k, v := range resolved {
				if _, exists := node[k]; !exists {
					node[k] = v
				}
			}
		}
		delete(node, "$ref")
	}

	migrateValidationFacets(node)

	for key := range blacklist {
		delete(node, key)
	}

	normalizeType(node)

	for key, val := range node {
		switch v := val.(type) {
		case map[string]any:
			clean(v, defs)
		case []any:
			for _, item := range v {
				if obj, ok := item.(map[string]any); ok {
					clean(obj, defs)
				}
			}
		}
		node[key] = val
	}
}

// migrateValidationFacets folds simple-typed (string/number/bool) validation
// keywords into the description, then removes them. A facet key whose value
// is itself an object (e.g. a property literally named "pattern" that is a
// nested schema) is left untouched — only primitive-valued facets are a
// validation keyword here.
func migrateValidationFacets(node map[string]any) {
	var suffix []string
	for _, facet := range validationFacets {
		val, ok := node[facet]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case string:
			suffix = append(suffix, fmt.Sprintf("%s: %s", facet, v))
			delete(node, facet)
		case float64, int, bool:
			suffix = append(suffix, fmt.Sprintf("%s: %v", facet, v))
			delete(node, facet)
		default:
			// Not a primitive — this is a sibling schema property named the
			// same as a facet keyword, not a constraint. Leave it alone.
		}
	}
	if len(suffix) == 0 {
		return
	}
	desc, _ := node["description"].(string)
	node["description"] = strings.TrimSpace(desc) + " [Constraint: " + strings.Join(suffix, ", ") + "]"
}

// normalizeType lowercases a string "type", or for a union type picks the
// first non-"null" entry (lowercased); if only "null" entries are present it
// defaults to "string". The upstream protobuf schema type is singular.
func normalizeType(node map[string]any) {
	switch t := node["type"].(type) {
	case string:
		node["type"] = strings.ToLower(t)
	case []any:
		chosen := ""
		for _, entry := range t {
			s, ok := entry.(string)
			if !ok {
				continue
			}
			s = strings.ToLower(s)
			if s != "null" {
				chosen = s
				break
			}
		}
		if chosen == "" {
			chosen = "string"
		}
		node["type"] = chosen
	}
}
