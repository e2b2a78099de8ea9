package simpleslots

import (
	"sort"
	"strings"
)

// DefaultSlotRoleLayout is used for roles defined without a layout.
var DefaultSlotRoleLayout = SlotRoleLayout{
	Display:   "none",
	Region:    "center",
	Placement: "append",
}

// Registry is the SlotRoleRegistry built from slot definitions.
type Registry struct {
	defaultModel  string
	defaultLayout SlotRoleLayout
	definitions   map[string]SlotDefinition
}

// NewSlotRoleRegistry creates a registry. main is always registered.
func NewSlotRoleRegistry(defaultModel string, defaultLayout *SlotRoleLayout, definitions map[string]SlotDefinition) *Registry {
	if defaultModel == "" {
		defaultModel = ModelWikitext
	}
	layout := DefaultSlotRoleLayout
	if defaultLayout != nil {
		layout = *defaultLayout
	}

	r := &Registry{
		defaultModel:  defaultModel,
		defaultLayout: layout,
		definitions:   make(map[string]SlotDefinition, len(definitions)+1),
	}
	for name, def := range definitions {
		r.definitions[NormalizeSlotName(name)] = def
	}
	if _, ok := r.definitions[MainSlot]; !ok {
		r.definitions[MainSlot] = SlotDefinition{}
	}
	return r
}

// IsRegisteredSlot reports whether name is a defined role
func (r *Registry) IsRegisteredSlot(name string) bool {
	_, ok := r.definitions[name]
	return ok
}

// DefaultModelFor returns the model a new slot of role gets on title.
// For main the title suffix selects css, javascript or json pages.
func (r *Registry) DefaultModelFor(role, title string) string {
	if role == MainSlot {
		switch {
		case strings.HasSuffix(title, ".css"):
			return ModelCSS
		case strings.HasSuffix(title, ".js"):
			return ModelJavaScript
		case strings.HasSuffix(title, ".json"):
			return ModelJSON
		}
	}
	if def, ok := r.definitions[role]; ok && def.ContentModel != "" {
		return def.ContentModel
	}
	return r.defaultModel
}

// Layout returns the display layout of role.
func (r *Registry) Layout(role string) SlotRoleLayout {
	if def, ok := r.definitions[role]; ok && def.SlotRoleLayout != nil {
		return *def.SlotRoleLayout
	}
	return r.defaultLayout
}

// Roles lists the defined roles, main first.
func (r *Registry) Roles() []string {
	roles := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		if name != MainSlot {
			roles = append(roles, name)
		}
	}
	sort.Strings(roles)
	return append([]string{MainSlot}, roles...)
}
