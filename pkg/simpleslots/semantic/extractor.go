// Package semantic extracts property annotations from slot content.
package semantic

import (
	"context"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tendant/simple-slots/pkg/simpleslots"
)

// SortKeyProperty is the built-in property holding the subject sort key.
const SortKeyProperty = "_SKEY"

// [[Property::Value]] or [[Property::Value|shown text]]
var annotationPattern = regexp.MustCompile(`\[\[([^\[\]|:]+)::([^\[\]|]*)(?:\|[^\[\]]*)?\]\]`)

// Extractor reads annotations from wikitext and text content and top-level
// keys from JSON content. Other models yield no data.
type Extractor struct{}

// NewExtractor returns the default extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the semantic data content declares for subject.
func (e *Extractor) Extract(ctx context.Context, subject string, content *simpleslots.Content) (*simpleslots.SemanticData, error) {
	data := simpleslots.NewSemanticData(subject)
	if content == nil {
		return data, nil
	}

	switch content.Model {
	case simpleslots.ModelWikitext, simpleslots.ModelText:
		extractAnnotations(data, content.Data)
	case simpleslots.ModelJSON:
		extractJSON(data, content.Data)
	}

	if !data.IsEmpty() {
		data.AddPropertyValue(SortKeyProperty, subject)
	}
	return data, nil
}

func extractAnnotations(data *simpleslots.SemanticData, text string) {
	for _, match := range annotationPattern.FindAllStringSubmatch(text, -1) {
		property := strings.TrimSpace(match[1])
		value := strings.TrimSpace(match[2])
		if property == "" || value == "" {
			continue
		}
		data.AddPropertyValue(property, value)
	}
}

func extractJSON(data *simpleslots.SemanticData, text string) {
	if !gjson.Valid(text) {
		return
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return
	}
	root.ForEach(func(key, value gjson.Result) bool {
		property := strings.TrimSpace(key.String())
		if property == "" {
			return true
		}
		if value.IsArray() {
			value.ForEach(func(_, item gjson.Result) bool {
				addScalar(data, property, item)
				return true
			})
			return true
		}
		addScalar(data, property, value)
		return true
	})
}

func addScalar(data *simpleslots.SemanticData, property string, value gjson.Result) {
	switch value.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		if s := value.String(); s != "" {
			data.AddPropertyValue(property, s)
		}
	}
}
