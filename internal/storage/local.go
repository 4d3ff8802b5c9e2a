// Package storage persists document attachments by opaque path. The core
// treats attachments as byte streams with a filename; everything else is
// behind the FileStore interface.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Attachment categories mirror the media layout: one directory per kind.
const (
	CategoryProforma      = "proformas"
	CategoryPurchaseOrder = "purchase_orders"
	CategoryReceipt       = "receipts"
)

// FileStore stores and resolves attachments
type FileStore interface {
	// Save writes data under the category directory and returns the stored
	// relative path used as the persistent reference.
	Save(category, filename string, data []byte) (string, error)
	// Resolve maps a stored relative path to an absolute filesystem path.
	Resolve(stored string) string
}

// LocalStore keeps attachments on local disk under a media root
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		root = "media"
	}
	for _, category := range []string{CategoryProforma, CategoryPurchaseOrder, CategoryReceipt} {
		if err := os.MkdirAll(filepath.Join(root, category), 0o755); err != nil {
			return nil, fmt.Errorf("create media directory: %w", err)
		}
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) Save(category, filename string, data []byte) (string, error) {
	name := sanitizeFilename(filename)
	// Prefix with a short random id so repeated uploads never collide
	name = fmt.Sprintf("%s_%s", uuid.New().String()[:8], name)

	rel := filepath.Join(category, name)
	if err := os.WriteFile(filepath.Join(s.root, rel), data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return rel, nil
}

func (s *LocalStore) Resolve(stored string) string {
	return filepath.Join(s.root, stored)
}

func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return name
}
