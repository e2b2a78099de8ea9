package blobkey

import (
	"fmt"
	"strings"
)

// Generator defines the interface for slot body key strategies
type Generator interface {
	// GenerateKey creates a blob key from the content hash of a slot
	GenerateKey(contentHash string, metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	Role  string // slot role
	Model string // content model
}

// FlatGenerator stores every body directly below one prefix
// Structure: blobs/{hash}
type FlatGenerator struct{}

func NewFlatGenerator() *FlatGenerator {
	return &FlatGenerator{}
}

func (g *FlatGenerator) GenerateKey(contentHash string, metadata *KeyMetadata) string {
	return "blobs/" + contentHash
}

// GitLikeGenerator provides Git-style sharded storage
// main:   slots/objects/ab/cd1234ef5678.wiki
// others: slots/{role}/objects/ab/cd1234ef5678.wiki
type GitLikeGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewGitLikeGenerator() *GitLikeGenerator {
	return &GitLikeGenerator{
		ShardLength: 2,
	}
}

func (g *GitLikeGenerator) GenerateKey(contentHash string, metadata *KeyMetadata) string {
	shardLength := g.ShardLength
	if shardLength <= 0 {
		shardLength = 2
	}
	if len(contentHash) <= shardLength {
		shardLength = 0
	}

	shardDir := contentHash[:shardLength]
	filename := contentHash[shardLength:]
	if metadata != nil {
		filename += extensionFor(metadata.Model)
	}

	pathPrefix := "slots/objects"
	if metadata != nil && metadata.Role != "" && metadata.Role != "main" {
		pathPrefix = fmt.Sprintf("slots/%s/objects", sanitizePathComponent(metadata.Role))
	}
	if shardDir == "" {
		return fmt.Sprintf("%s/%s", pathPrefix, filename)
	}
	return fmt.Sprintf("%s/%s/%s", pathPrefix, shardDir, filename)
}

// CustomFuncGenerator allows users to provide their own key generation function
type CustomFuncGenerator struct {
	GenerateFunc func(contentHash string, metadata *KeyMetadata) string
}

func NewCustomFuncGenerator(fn func(contentHash string, metadata *KeyMetadata) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{
		GenerateFunc: fn,
	}
}

func (g *CustomFuncGenerator) GenerateKey(contentHash string, metadata *KeyMetadata) string {
	return g.GenerateFunc(contentHash, metadata)
}

func extensionFor(model string) string {
	switch model {
	case "wikitext":
		return ".wiki"
	case "text":
		return ".txt"
	case "css":
		return ".css"
	case "javascript":
		return ".js"
	case "json":
		return ".json"
	}
	return ""
}

func sanitizePathComponent(component string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
		".", "_",
	)
	return strings.ToLower(replacer.Replace(component))
}

// NewRecommendedGenerator returns the recommended generator for new installations
func NewRecommendedGenerator() Generator {
	return NewGitLikeGenerator()
}
