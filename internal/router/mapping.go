// Copyright 2026 The switchAILocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package router resolves an incoming model name into the upstream model and
// request-shaping decisions (grounding injection, image-generation mode) the
// Gemini v1internal envelope needs.
package router

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed models.yaml
var defaultMappingYAML []byte

// RequestType classifies the outgoing call for token-pool stickiness purposes.
type RequestType string

const (
	RequestTypeClaude   RequestType = "claude"
	RequestTypeGemini   RequestType = "gemini"
	RequestTypeImageGen RequestType = "image_gen"
)

// RequestConfig is what the request mappers need to build the upstream
// envelope for a resolved model.
type RequestConfig struct {
	FinalModel         string
	RequestType        RequestType
	InjectGoogleSearch bool
	ImageConfig        map[string]any
}

type defaultMapping struct {
	AnthropicMapping      map[string]string `yaml:"anthropic_mapping"`
	OpenAIMapping         map[string]string `yaml:"openai_mapping"`
	ImageGenerationModels []string          `yaml:"image_generation_models"`
	SearchModels          []string          `yaml:"search_models"`
}

// Router resolves model names using, in priority order: an exact match in
// CustomMapping, the OpenAI-family table, the Anthropic-family table, a
// built-in default table, else pass-through.
type Router struct {
	mu sync.RWMutex

	custom    map[string]string
	openai    map[string]string
	anthropic map[string]string

	defaults          defaultMapping
	imageGenModels    map[string]struct{}
	searchModels      map[string]struct{}
}

// New constructs a Router seeded with the built-in default mapping table.
func New() *Router {
	r := &Router{
		custom:    map[string]string{},
		openai:    map[string]string{},
		anthropic: map[string]string{},
	}
	var dm defaultMapping
	_ = yaml.Unmarshal(defaultMappingYAML, &dm)
	r.defaults = dm
	r.imageGenModels = toSet(dm.ImageGenerationModels)
	r.searchModels = toSet(dm.SearchModels)
	return r
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// SetMappings replaces the three live, config-sourced mapping tables. Safe to
// call concurrently with Resolve; it is how configuration hot-reload updates
// routing without a restart.
func (r *Router) SetMappings(custom, openai, anthropic map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = cloneMap(custom)
	r.openai = cloneMap(openai)
	r.anthropic = cloneMap(anthropic)
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mapModel resolves a raw model name to its Gemini target, following the
// configured priority order and falling back to the built-in defaults.
func (r *Router) mapModel(model string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mapped, ok := r.custom[model]; ok {
		return mapped
	}
	if isOpenAIStyle(model) {
		if mapped, ok := r.openai[model]; ok {
			return mapped
		}
		if mapped, ok := r.defaults.OpenAIMapping[model]; ok {
			return mapped
		}
	}
	if strings.HasPrefix(model, "claude") {
		if mapped, ok := r.anthropic[model]; ok {
			return mapped
		}
		if mapped, ok := r.defaults.AnthropicMapping[model]; ok {
			return mapped
		}
	}
	return model
}

func isOpenAIStyle(model string) bool {
	return strings.HasPrefix(model, "gpt-") || strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4")
}

// ResolveClaude maps a Claude model name, forcing a Gemini Flash target when
// the request carries a web_search tool (Claude doesn't distinguish search
// variants by model name the way Gemini does).
func (r *Router) ResolveClaude(model string, hasWebSearchTool bool) RequestConfig {
	final := "gemini-2.5-flash"
	if !hasWebSearchTool {
		final = r.mapModel(model)
	}
	return r.buildConfig(final, RequestTypeClaude, hasWebSearchTool)
}

// ResolveOpenAI maps an OpenAI-family model name.
func (r *Router) ResolveOpenAI(model string, hasWebSearchTool bool) RequestConfig {
	final := r.mapModel(model)
	return r.buildConfig(final, RequestTypeGemini, hasWebSearchTool)
}

// ResolveGemini resolves a native Gemini passthrough request — the model
// name is already a Gemini model, so it passes straight through custom
// overrides only.
func (r *Router) ResolveGemini(model string) RequestConfig {
	r.mu.RLock()
	final, ok := r.custom[model]
	r.mu.RUnlock()
	if !ok {
		final = model
	}
	return r.buildConfig(final, RequestTypeGemini, false)
}

// KnownModels returns the sorted, de-duplicated union of every model name
// the router knows about: live custom/OpenAI/Anthropic mapping keys and
// values, the built-in default tables, and the image-generation/search
// variants, for GET /v1/models.
func (r *Router) KnownModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := map[string]struct{}{}
	addPairs := func(m map[string]string) {
		for k, v := range m {
			set[k] = struct{}{}
			set[v] = struct{}{}
		}
	}
	addPairs(r.custom)
	addPairs(r.openai)
	addPairs(r.anthropic)
	addPairs(r.defaults.OpenAIMapping)
	addPairs(r.defaults.AnthropicMapping)
	for model := range r.imageGenModels {
		set[model] = struct{}{}
	}
	for model := range r.searchModels {
		set[model] = struct{}{}
	}

	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Router) buildConfig(final string, reqType RequestType, hasWebSearchTool bool) RequestConfig {
	cfg := RequestConfig{FinalModel: final, RequestType: reqType}

	r.mu.RLock()
	_, isImageGen := r.imageGenModels[final]
	_, isSearch := r.searchModels[final]
	r.mu.RUnlock()

	if isImageGen {
		cfg.RequestType = RequestTypeImageGen
		cfg.ImageConfig = map[string]any{
			"aspectRatio": "1:1",
		}
		return cfg
	}

	if isSearch && !hasWebSearchTool {
		cfg.InjectGoogleSearch = true
	}

	return cfg
}
