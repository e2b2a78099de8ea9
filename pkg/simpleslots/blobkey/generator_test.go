package blobkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testHash = "98fcdeb51a243d19f12345678901234abcdef012"

func TestFlatGenerator(t *testing.T) {
	gen := NewFlatGenerator()
	assert.Equal(t, "blobs/"+testHash, gen.GenerateKey(testHash, &KeyMetadata{Role: "doc"}))
}

func TestGitLikeGenerator(t *testing.T) {
	gen := NewGitLikeGenerator()

	tests := []struct {
		name     string
		metadata *KeyMetadata
		expected string
	}{
		{
			name:     "no metadata",
			metadata: nil,
			expected: "slots/objects/98/" + testHash[2:],
		},
		{
			name:     "main slot",
			metadata: &KeyMetadata{Role: "main", Model: "wikitext"},
			expected: "slots/objects/98/" + testHash[2:] + ".wiki",
		},
		{
			name:     "named slot",
			metadata: &KeyMetadata{Role: "Doc Page", Model: "json"},
			expected: "slots/doc_page/objects/98/" + testHash[2:] + ".json",
		},
		{
			name:     "path traversal in role",
			metadata: &KeyMetadata{Role: "../etc"},
			expected: "slots/___etc/objects/98/" + testHash[2:],
		},
		{
			name:     "unknown model",
			metadata: &KeyMetadata{Model: "blob"},
			expected: "slots/objects/98/" + testHash[2:],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gen.GenerateKey(testHash, tt.metadata))
		})
	}
}

func TestGitLikeGenerator_ShortHash(t *testing.T) {
	gen := &GitLikeGenerator{ShardLength: 3}
	assert.Equal(t, "slots/objects/ab", gen.GenerateKey("ab", nil))
	assert.Equal(t, "slots/objects/abc/d", gen.GenerateKey("abcd", nil))
}

func TestCustomFuncGenerator(t *testing.T) {
	gen := NewCustomFuncGenerator(func(contentHash string, metadata *KeyMetadata) string {
		return metadata.Role + "/" + contentHash
	})
	assert.Equal(t, "doc/abc", gen.GenerateKey("abc", &KeyMetadata{Role: "doc"}))
}

func TestNewRecommendedGenerator(t *testing.T) {
	_, ok := NewRecommendedGenerator().(*GitLikeGenerator)
	assert.True(t, ok)
}
