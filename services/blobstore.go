package services

import (
	"log"
	"os"
	"path/filepath"
)

// BlobStore abstracts uploaded-file storage. The workflows only need
// deletion (patrol destroy cascades over the patrol image and every
// feedback image); the upload controller writes blobs directly.
type BlobStore interface {
	Delete(path string) error
}

// LocalBlobStore deletes files under the upload root on local disk.
type LocalBlobStore struct {
	Root string
}

func NewLocalBlobStore(root string) *LocalBlobStore {
	if root == "" {
		root = os.Getenv("UPLOAD_PATH")
	}
	if root == "" {
		root = "./uploads"
	}
	return &LocalBlobStore{Root: root}
}

func (s *LocalBlobStore) Delete(path string) error {
	if path == "" {
		return nil
	}
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(s.Root, filepath.Base(path))
	}
	err := os.Remove(full)
	if os.IsNotExist(err) {
		log.Printf("blobstore: %s already gone", full)
		return nil
	}
	return err
}
