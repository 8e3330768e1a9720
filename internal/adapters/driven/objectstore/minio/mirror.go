// Package minio mirrors layout parser output from an S3-compatible
// bucket into the local workspace.
//
// Objects are laid out as <prefix>/<doc_id>/<file>.json.
package minio

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/custodia-labs/docstruct/internal/adapters/driven/workspace"
	"github.com/custodia-labs/docstruct/internal/core/domain"
	"github.com/custodia-labs/docstruct/internal/core/ports/driven"
	"github.com/custodia-labs/docstruct/internal/logger"
)

// Ensure Mirror implements the interface.
var _ driven.WorkspaceMirror = (*Mirror)(nil)

// objectClient is the part of *miniogo.Client the mirror uses.
type objectClient interface {
	ListObjects(ctx context.Context, bucket string, opts miniogo.ListObjectsOptions) <-chan miniogo.ObjectInfo
	FGetObject(ctx context.Context, bucket, object, filePath string, opts miniogo.GetObjectOptions) error
}

// Config holds the connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// Mirror fetches document sources from a bucket.
type Mirror struct {
	client objectClient
	bucket string
	prefix string
}

// New connects to the object store. No request is made until the
// first List or Fetch.
func New(cfg Config) (*Mirror, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio endpoint and bucket are required", domain.ErrInvalidInput)
	}
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}
	return newWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newWithClient(c objectClient, bucket, prefix string) *Mirror {
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Mirror{client: c, bucket: bucket, prefix: prefix}
}

// ListDocuments returns the document directories under the prefix.
func (m *Mirror) ListDocuments(ctx context.Context) ([]string, error) {
	var ids []string
	for obj := range m.client.ListObjects(ctx, m.bucket, miniogo.ListObjectsOptions{Prefix: m.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing %s/%s: %w", m.bucket, m.prefix, obj.Err)
		}
		rest := strings.TrimPrefix(obj.Key, m.prefix)
		if !strings.HasSuffix(rest, "/") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(rest, "/"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Fetch downloads the JSON files directly under <prefix>/<doc_id>/ into
// destDir. Nested objects such as extracted images are left remote.
func (m *Mirror) Fetch(ctx context.Context, docID, destDir string) (int, error) {
	if err := domain.ValidateDocID(docID); err != nil {
		return 0, err
	}
	docPrefix := m.prefix + docID + "/"

	var keys []string
	opts := miniogo.ListObjectsOptions{Prefix: docPrefix, Recursive: true}
	for obj := range m.client.ListObjects(ctx, m.bucket, opts) {
		if obj.Err != nil {
			return 0, fmt.Errorf("listing %s: %w", docPrefix, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, docPrefix)
		if strings.Contains(name, "/") || !workspace.IsSourceFile(name) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	if len(keys) == 0 {
		return 0, fmt.Errorf("document %s in bucket %s: %w", docID, m.bucket, domain.ErrNotFound)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", destDir, err)
	}
	for i, key := range keys {
		dest := filepath.Join(destDir, path.Base(key))
		if err := m.client.FGetObject(ctx, m.bucket, key, dest, miniogo.GetObjectOptions{}); err != nil {
			return i, fmt.Errorf("downloading %s: %w", key, err)
		}
		logger.Debug("fetched %s -> %s", key, dest)
	}
	return len(keys), nil
}
