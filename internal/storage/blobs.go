// Package storage persists creation artifacts (images, certificates) on
// the local filesystem, laid out as {root}/{owner}/{creation}/{name}.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Well-known blob names within a creation directory.
const (
	BlobOriginal    = "original.png"
	BlobRefined     = "refined.png"
	BlobThumbnail   = "thumb.jpg"
	BlobCertificate = "certificate.pdf"
	BlobPromptCard  = "card.png"
)

// ErrNotFound is returned when a requested blob does not exist.
var ErrNotFound = errors.New("storage: blob not found")

// Blobs is a filesystem-backed blob store. Owner and creation IDs are
// UUIDs, so directory names are path-safe by construction; blob names
// are still validated against traversal.
type Blobs struct {
	root   string
	logger *slog.Logger
}

// NewBlobs opens (creating if needed) a blob store rooted at dir.
func NewBlobs(dir string, logger *slog.Logger) (*Blobs, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Blobs{root: abs, logger: logger}, nil
}

// Put writes a blob, replacing any existing content. The write goes
// through a temp file and rename so readers never observe a partial
// blob.
func (b *Blobs) Put(owner, creation uuid.UUID, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	dir := filepath.Join(b.root, owner.String(), creation.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close blob %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit blob %s: %w", name, err)
	}

	b.logger.Debug("stored blob",
		"owner", owner, "creation", creation, "name", name, "bytes", len(data))
	return nil
}

// Get reads a blob. Returns ErrNotFound when it does not exist.
func (b *Blobs) Get(owner, creation uuid.UUID, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(b.root, owner.String(), creation.String(), name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

// DeleteCreation removes every blob of one creation. A creation that was
// never written (or was already deleted) is not an error; gallery
// deletion must stay idempotent.
func (b *Blobs) DeleteCreation(owner, creation uuid.UUID) error {
	dir := filepath.Join(b.root, owner.String(), creation.String())
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete creation blobs: %w", err)
	}
	b.logger.Debug("deleted creation blobs", "owner", owner, "creation", creation)
	return nil
}

// validateName rejects blob names that could escape the creation
// directory.
func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("storage: invalid blob name %q", name)
	}
	return nil
}
