package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/kidcreatives/kidcreatives/internal/log"
)

func newTestBlobs(t *testing.T) *Blobs {
	t.Helper()
	b, err := NewBlobs(t.TempDir(), log.NewNop())
	if err != nil {
		t.Fatalf("NewBlobs() error = %v", err)
	}
	return b
}

func TestBlobs_PutGetRoundTrip(t *testing.T) {
	b := newTestBlobs(t)
	owner, creation := uuid.New(), uuid.New()
	content := []byte("png bytes here")

	if err := b.Put(owner, creation, BlobOriginal, content); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := b.Get(owner, creation, BlobOriginal)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Get() = %q, want %q", got, content)
	}
}

func TestBlobs_PutOverwrites(t *testing.T) {
	b := newTestBlobs(t)
	owner, creation := uuid.New(), uuid.New()

	if err := b.Put(owner, creation, BlobRefined, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := b.Put(owner, creation, BlobRefined, []byte("second")); err != nil {
		t.Fatal(err)
	}

	got, err := b.Get(owner, creation, BlobRefined)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "second")
	}
}

func TestBlobs_GetMissing(t *testing.T) {
	b := newTestBlobs(t)

	_, err := b.Get(uuid.New(), uuid.New(), BlobThumbnail)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestBlobs_DeleteCreation(t *testing.T) {
	b := newTestBlobs(t)
	owner, creation := uuid.New(), uuid.New()

	for _, name := range []string{BlobOriginal, BlobRefined, BlobThumbnail, BlobCertificate} {
		if err := b.Put(owner, creation, name, []byte(name)); err != nil {
			t.Fatal(err)
		}
	}

	if err := b.DeleteCreation(owner, creation); err != nil {
		t.Fatalf("DeleteCreation() error = %v", err)
	}
	if _, err := b.Get(owner, creation, BlobOriginal); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is a no-op, not an error.
	if err := b.DeleteCreation(owner, creation); err != nil {
		t.Errorf("DeleteCreation() on missing creation error = %v, want nil", err)
	}
}

func TestBlobs_InvalidNames(t *testing.T) {
	b := newTestBlobs(t)
	owner, creation := uuid.New(), uuid.New()

	names := []string{"", ".", "..", "../escape.png", "a/b.png", `a\b.png`}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			if err := b.Put(owner, creation, name, []byte("x")); err == nil {
				t.Errorf("Put(%q) error = nil, want invalid name error", name)
			}
			if _, err := b.Get(owner, creation, name); err == nil {
				t.Errorf("Get(%q) error = nil, want invalid name error", name)
			}
		})
	}

	// Nothing escaped outside the per-creation layout.
	entries, err := os.ReadDir(filepath.Join(b.root))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if _, err := uuid.Parse(e.Name()); err != nil {
			t.Errorf("unexpected entry %q in blob root", e.Name())
		}
	}
}

func TestBlobs_IsolatesOwners(t *testing.T) {
	b := newTestBlobs(t)
	creation := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	if err := b.Put(alice, creation, BlobOriginal, []byte("alice")); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Get(bob, creation, BlobOriginal); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() across owners error = %v, want ErrNotFound", err)
	}
}
