package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Bucket names used by the extraction tiers. Uploads receive new documents;
// the archive bucket is the secondary location consulted when the primary
// read fails or yields unusable text.
const (
	BucketUploads = "uploads"
	BucketArchive = "archive"
)

// BlobStore is a filesystem-backed binary object store. Each bucket is a
// subdirectory of the root; keys are sanitized file names within it.
type BlobStore struct {
	root string
}

// NewBlobStore creates a BlobStore rooted at dir, creating the standard
// bucket directories if needed.
func NewBlobStore(dir string) (*BlobStore, error) {
	for _, bucket := range []string{BucketUploads, BucketArchive} {
		if err := os.MkdirAll(filepath.Join(dir, bucket), 0o755); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", bucket, err)
		}
	}
	return &BlobStore{root: dir}, nil
}

// Get retrieves the payload stored under (bucket, key). Returns ErrNotFound
// when no such object exists.
func (b *BlobStore) Get(bucket, key string) ([]byte, error) {
	path, err := b.objectPath(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Put stores payload under (bucket, key), overwriting any existing object.
func (b *BlobStore) Put(bucket, key string, data []byte) error {
	path, err := b.objectPath(bucket, key)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing blob %s/%s: %w", bucket, key, err)
	}
	return nil
}

// objectPath validates bucket and key and returns the filesystem path.
// Keys must not escape the bucket directory.
func (b *BlobStore) objectPath(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("empty bucket or key")
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(b.root, bucket, key), nil
}
