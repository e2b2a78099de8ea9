package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-slots/pkg/simpleslots"
	memorystorage "github.com/tendant/simple-slots/pkg/simpleslots/storage/memory"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, simpleslots.ModelWikitext, cfg.DefaultContentModel)
	assert.Equal(t, simpleslots.SlotRoleLayout{Display: "none", Region: "center", Placement: "append"}, cfg.DefaultSlotRoleLayout)
	assert.True(t, cfg.DoPurge)
	assert.Empty(t, cfg.SemanticSlots)
	assert.Empty(t, cfg.DefinedSlots)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
		wantErr string
	}{
		{
			name:    "unknown default model",
			options: []Option{WithDefaultContentModel("binary")},
			wantErr: "unknown default content model",
		},
		{
			name:    "slot with unknown model",
			options: []Option{WithDefinedSlot("doc", "binary", nil)},
			wantErr: "slot doc uses unknown content model",
		},
		{
			name:    "undefined semantic slot",
			options: []Option{WithSemanticSlots("meta")},
			wantErr: "semantic slot meta is not a defined slot",
		},
		{
			name:    "production without secrets",
			options: []Option{WithEnvironment("production")},
			wantErr: "jwt_secret is required in production",
		},
		{
			name:    "production without csrf secret",
			options: []Option{WithEnvironment("production"), WithSecrets("jwt", "")},
			wantErr: "csrf_secret is required in production",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.options...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlotOptions(t *testing.T) {
	layout := &simpleslots.SlotRoleLayout{Display: "details", Region: "footer", Placement: "prepend"}
	cfg, err := Load(
		WithDefinedSlot("Doc", simpleslots.ModelText, layout),
		WithDefinedSlot("meta", "", nil),
		WithSemanticSlots("meta", "main"),
		WithDoPurge(false),
	)
	require.NoError(t, err)

	require.Contains(t, cfg.DefinedSlots, "doc")
	assert.Equal(t, simpleslots.ModelText, cfg.DefinedSlots["doc"].ContentModel)
	assert.Equal(t, layout, cfg.DefinedSlots["doc"].SlotRoleLayout)
	assert.Equal(t, []string{"meta", "main"}, cfg.SemanticSlots)
	assert.False(t, cfg.DoPurge)

	roles := cfg.slotRoles()
	assert.Equal(t, []string{"main", "doc", "meta"}, roles.Roles())
	assert.Equal(t, *layout, roles.Layout("doc"))
	assert.Equal(t, simpleslots.DefaultSlotRoleLayout, roles.Layout("meta"))
}

func TestWithDatabase(t *testing.T) {
	tests := []struct {
		name      string
		dbType    string
		url       string
		wantError bool
	}{
		{"memory valid", "memory", "", false},
		{"postgres valid", "postgres", "postgresql://localhost/test", false},
		{"postgres missing url", "postgres", "", true},
		{"invalid type", "mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithDatabase(tt.dbType, tt.url))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dbType, cfg.DatabaseType)
			assert.Equal(t, tt.url, cfg.DatabaseURL)
		})
	}
}

func TestWithKeyGenerator(t *testing.T) {
	_, err := Load(WithKeyGenerator("legacy"))
	assert.Error(t, err)

	cfg, err := Load(WithKeyGenerator("flat"))
	require.NoError(t, err)
	assert.Equal(t, "blobs/abc", cfg.keyGenerator().GenerateKey("abc", nil))
}

func TestParseStorageURL(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "key")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_REGION", "eu-west-1")

	tests := []struct {
		name      string
		raw       string
		wantType  string
		wantError bool
	}{
		{"empty is inline", "", "", false},
		{"memory keyword", "memory", "memory", false},
		{"memory URL", "memory://", "memory", false},
		{"filesystem URL", "file:///var/data", "fs", false},
		{"S3 URL", "s3://my-bucket", "s3", false},
		{"S3 without bucket", "s3://", "", true},
		{"bad boolean", "s3://my-bucket?path_style=maybe", "", true},
		{"invalid URL", "ftp://example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := parseStorageURL(tt.raw)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, storage.Type)
		})
	}

	storage, err := parseStorageURL("s3://wiki-slots?endpoint=http://localhost:9000&path_style=true&prefix=/bodies/&sse=AES256&create_bucket=1")
	require.NoError(t, err)
	assert.Equal(t, "wiki-slots", storage.S3.Bucket)
	assert.Equal(t, "eu-west-1", storage.S3.Region)
	assert.Equal(t, "http://localhost:9000", storage.S3.Endpoint)
	assert.Equal(t, "bodies", storage.S3.Prefix)
	assert.True(t, storage.S3.UsePathStyle)
	assert.True(t, storage.S3.EnableSSE)
	assert.True(t, storage.S3.CreateBucketIfNotExist)
	assert.Equal(t, "key", storage.S3.AccessKeyID)
	assert.Equal(t, "secret", storage.S3.SecretAccessKey)

	storage, err = parseStorageURL("file:///var/data")
	require.NoError(t, err)
	assert.Equal(t, "/var/data", storage.Path)
}

func TestBuildBlobStore(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	store, err := cfg.BuildBlobStore()
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg, err = Load(WithStorageURL("memory://"))
	require.NoError(t, err)
	store, err = cfg.BuildBlobStore()
	require.NoError(t, err)
	assert.IsType(t, &memorystorage.Backend{}, store)

	dir := filepath.Join(t.TempDir(), "bodies")
	cfg, err = Load(WithStorageURL("file://" + dir))
	require.NoError(t, err)
	store, err = cfg.BuildBlobStore()
	require.NoError(t, err)
	assert.NotNil(t, store)
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestBuildService(t *testing.T) {
	cfg, err := Load(
		WithDefinedSlot("meta", "", nil),
		WithSemanticSlots("meta"),
		WithDoPurge(false),
		WithEventLogging(false),
	)
	require.NoError(t, err)

	svc, err := cfg.BuildService()
	require.NoError(t, err)

	ctx := context.Background()
	actor := simpleslots.Actor{ID: uuid.New(), Name: "Alice"}
	_, err = svc.EditSlot(ctx, simpleslots.EditSlotRequest{
		Actor: actor,
		Page:  simpleslots.PageRef{Title: "Foo"},
		Slot:  "meta",
		Text:  "[[_P::2]]",
	})
	require.NoError(t, err)

	revisions, err := svc.ListRevisions(ctx, "Foo")
	require.NoError(t, err)
	assert.Len(t, revisions, 1)

	data, err := svc.GetSemanticData(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, data.Values("_P"))

	_, err = svc.EditSlot(ctx, simpleslots.EditSlotRequest{
		Actor: actor,
		Page:  simpleslots.PageRef{Title: "Foo"},
		Slot:  "doc",
		Text:  "x",
	})
	assert.ErrorIs(t, err, simpleslots.ErrUnknownSlot)
}
