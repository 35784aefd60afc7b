package core

import (
	"fmt"
	"sync"
)

var (
	registry   = make(map[FormType]FormDefinition)
	registryMu sync.RWMutex
)

// Register adds a form definition to the registry.
// Panics if the form type is not one of the supported types or is already registered.
func Register(def FormDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if !def.Info.Type.Valid() {
		panic(fmt.Sprintf("unsupported form type: %q", def.Info.Type))
	}
	if _, exists := registry[def.Info.Type]; exists {
		panic(fmt.Sprintf("form already registered: %s", def.Info.Type))
	}

	for _, rule := range def.Rules {
		if findSpec(def.FieldSpecs, rule.SourceField) == nil {
			panic(fmt.Sprintf("form %s: mapping rule reads unknown field %q", def.Info.Type, rule.SourceField))
		}
	}

	registry[def.Info.Type] = def
}

// Get returns a form definition by type.
// Returns false if not found.
func Get(ft FormType) (FormDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[ft]
	return def, ok
}

// All returns all registered form definitions in FormTypes order.
func All() []FormDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]FormDefinition, 0, len(registry))
	for _, ft := range FormTypes {
		if def, ok := registry[ft]; ok {
			result = append(result, def)
		}
	}
	return result
}

// Rules returns the ordered mapping rules for a form type.
func Rules(ft FormType) ([]MappingRule, error) {
	def, ok := Get(ft)
	if !ok {
		return nil, &UnknownFormTypeError{Type: string(ft)}
	}
	return def.Rules, nil
}

// FormCount returns the number of registered form types.
func FormCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

func findSpec(specs []FieldSpec, name string) *FieldSpec {
	for i := range specs {
		if specs[i].Name == name {
			return &specs[i]
		}
	}
	return nil
}
