package semantic_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-slots/pkg/simpleslots"
	"github.com/tendant/simple-slots/pkg/simpleslots/semantic"
)

func TestExtractor_Extract(t *testing.T) {
	extractor := semantic.NewExtractor()
	ctx := context.Background()

	tests := []struct {
		name     string
		content  *simpleslots.Content
		expected map[string][]string
	}{
		{
			name:    "wikitext annotations",
			content: &simpleslots.Content{Model: simpleslots.ModelWikitext, Data: "A [[Color::red]] and [[Size:: large |big]] [[Color::red]]."},
			expected: map[string][]string{
				"Color":                  {"red"},
				"Size":                   {"large"},
				semantic.SortKeyProperty: {"Foo"},
			},
		},
		{
			name:    "built-in annotation",
			content: &simpleslots.Content{Model: simpleslots.ModelText, Data: "[[_P::1]]"},
			expected: map[string][]string{
				"_P":                     {"1"},
				semantic.SortKeyProperty: {"Foo"},
			},
		},
		{
			name:    "plain links are ignored",
			content: &simpleslots.Content{Model: simpleslots.ModelWikitext, Data: "see [[Other page]] and [[Category:Things]]"},
			expected: map[string][]string{},
		},
		{
			name:    "json keys",
			content: &simpleslots.Content{Model: simpleslots.ModelJSON, Data: `{"Color":"red","_P":2,"Tags":["a","b",{"x":1}],"Nested":{"y":1},"Ok":true}`},
			expected: map[string][]string{
				"Color":                  {"red"},
				"_P":                     {"2"},
				"Tags":                   {"a", "b"},
				"Ok":                     {"true"},
				semantic.SortKeyProperty: {"Foo"},
			},
		},
		{
			name:     "json that is not an object",
			content:  &simpleslots.Content{Model: simpleslots.ModelJSON, Data: `[1,2]`},
			expected: map[string][]string{},
		},
		{
			name:     "invalid json",
			content:  &simpleslots.Content{Model: simpleslots.ModelJSON, Data: `{`},
			expected: map[string][]string{},
		},
		{
			name:     "css has no annotations",
			content:  &simpleslots.Content{Model: simpleslots.ModelCSS, Data: "[[A::b]]"},
			expected: map[string][]string{},
		},
		{
			name:     "nil content",
			content:  nil,
			expected: map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := extractor.Extract(ctx, "Foo", tt.content)
			require.NoError(t, err)
			assert.Equal(t, "Foo", data.Subject)
			assert.Equal(t, tt.expected, data.Properties)
		})
	}
}
