package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	s3storage "github.com/tendant/simple-slots/pkg/simpleslots/storage/s3"
)

// storageConfig is the parsed form of a storage URL
type storageConfig struct {
	Type string // "", "memory", "fs", "s3"
	Path string
	S3   s3storage.Config
}

// parseStorageURL parses a storage URL. Supported forms:
//
//	""                 slot bodies stay inline in the database
//	memory://          in-memory storage
//	file:///path       filesystem storage below path
//	s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true&prefix=wiki&sse=AES256&create_bucket=true
//
// S3 credentials are taken from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY,
// falling back to the default credential chain.
func parseStorageURL(raw string) (storageConfig, error) {
	if raw == "" {
		return storageConfig{}, nil
	}
	if raw == "memory" || raw == "memory://" {
		return storageConfig{Type: "memory"}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return storageConfig{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			return storageConfig{}, fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		return storageConfig{Type: "fs", Path: path}, nil

	case "s3":
		if u.Host == "" {
			return storageConfig{}, fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
		}
		q := u.Query()
		cfg := s3storage.Config{
			Bucket:          u.Host,
			Region:          q.Get("region"),
			Endpoint:        q.Get("endpoint"),
			Prefix:          strings.Trim(q.Get("prefix"), "/"),
			SSEAlgorithm:    q.Get("sse"),
			SSEKMSKeyID:     q.Get("sse_kms_key_id"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		}
		cfg.EnableSSE = cfg.SSEAlgorithm != ""
		if cfg.Region == "" {
			cfg.Region = os.Getenv("AWS_REGION")
		}
		if cfg.UsePathStyle, err = queryBool(q, "path_style"); err != nil {
			return storageConfig{}, err
		}
		if cfg.CreateBucketIfNotExist, err = queryBool(q, "create_bucket"); err != nil {
			return storageConfig{}, err
		}
		return storageConfig{Type: "s3", S3: cfg}, nil
	}

	return storageConfig{}, fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}

func queryBool(q url.Values, key string) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for STORAGE_URL parameter %s: %w", key, err)
	}
	return b, nil
}
