package simpleslots

import (
	"sort"
	"strings"
)

// SemanticData maps properties to ordered sets of values for one subject.
type SemanticData struct {
	Subject    string              `json:"subject"`
	Properties map[string][]string `json:"properties"`
}

// NewSemanticData creates an empty data set for subject.
func NewSemanticData(subject string) *SemanticData {
	return &SemanticData{
		Subject:    subject,
		Properties: make(map[string][]string),
	}
}

// IsUserDefinedProperty reports whether key names a property declared by
// wiki authors. Built-in properties start with an underscore.
func IsUserDefinedProperty(key string) bool {
	return !strings.HasPrefix(key, "_")
}

// AddPropertyValue adds value to the property unless already present.
func (d *SemanticData) AddPropertyValue(property, value string) {
	if d.Properties == nil {
		d.Properties = make(map[string][]string)
	}
	for _, v := range d.Properties[property] {
		if v == value {
			return
		}
	}
	d.Properties[property] = append(d.Properties[property], value)
}

// RemoveProperty drops the property and all its values.
func (d *SemanticData) RemoveProperty(property string) {
	delete(d.Properties, property)
}

// HasProperty reports whether the property carries at least one value.
func (d *SemanticData) HasProperty(property string) bool {
	return len(d.Properties[property]) > 0
}

// Values returns the values of property.
func (d *SemanticData) Values(property string) []string {
	return d.Properties[property]
}

// PropertyKeys returns the property keys, sorted.
func (d *SemanticData) PropertyKeys() []string {
	keys := make([]string, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsEmpty reports whether no property carries a value.
func (d *SemanticData) IsEmpty() bool {
	if d == nil {
		return true
	}
	for _, values := range d.Properties {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// ImportFrom unions other into d.
func (d *SemanticData) ImportFrom(other *SemanticData) {
	if other == nil {
		return
	}
	for _, key := range other.PropertyKeys() {
		for _, v := range other.Properties[key] {
			d.AddPropertyValue(key, v)
		}
	}
}

// Clone returns a deep copy.
func (d *SemanticData) Clone() *SemanticData {
	c := NewSemanticData(d.Subject)
	for k, values := range d.Properties {
		c.Properties[k] = append([]string(nil), values...)
	}
	return c
}
