package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"timecapsule/internal/capsule"
	"timecapsule/internal/testutil"
)

// testEnvelope returns a structurally valid envelope for store tests.
// Store tests never open capsules, so the crypto fields are just fixtures.
func testEnvelope(label string) *capsule.Envelope {
	return &capsule.Envelope{
		EncryptedContent: "1oktCK7CHdGliLTJtC5USg==",
		Nonce:            "yhZQBFspC+GKXBNG",
		Salt:             "c29tZS1rZGYtc2FsdA",
		PasswordHash:     "$argon2id$v=19$m=19456,t=2,p=1$c29tZS1waGMtc2FsdA$5cnM9Ca7VIYDEXMkHrJw8mvLYKyZM7T0X8gTtnAmRMo",
		UnlockDate:       time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC),
		Label:            label,
		CreatedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestFilesystemStore(t *testing.T) *FilesystemStore {
	t.Helper()
	s, err := NewFilesystemStore(filepath.Join(t.TempDir(), "capsules"),
		capsule.UUIDGenerator{}, capsule.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}
	return s
}

func TestNewFilesystemStore(t *testing.T) {
	t.Run("creates root on first use", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "capsules")
		if _, err := NewFilesystemStore(root, capsule.UUIDGenerator{}, capsule.NewNopLogger()); err != nil {
			t.Fatalf("NewFilesystemStore() error = %v", err)
		}
		info, err := os.Stat(root)
		if err != nil {
			t.Fatalf("storage root not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("storage root is not a directory")
		}
	})

	t.Run("empty root rejected", func(t *testing.T) {
		if _, err := NewFilesystemStore("", capsule.UUIDGenerator{}, capsule.NewNopLogger()); err == nil {
			t.Error("NewFilesystemStore(\"\") expected error")
		}
	})
}

func TestFilesystemStore_SaveLoad(t *testing.T) {
	s := newTestFilesystemStore(t)

	env := testEnvelope("greeting")
	id, err := s.Save(env)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if id == "" {
		t.Fatal("Save() returned empty identifier")
	}

	loaded, err := s.Load(id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.EncryptedContent != env.EncryptedContent {
		t.Errorf("encrypted_content = %q, want %q", loaded.EncryptedContent, env.EncryptedContent)
	}
	if loaded.Label != "greeting" {
		t.Errorf("label = %q, want %q", loaded.Label, "greeting")
	}
	if !loaded.UnlockDate.Equal(env.UnlockDate) {
		t.Errorf("unlock_date = %v, want %v", loaded.UnlockDate, env.UnlockDate)
	}
}

func TestFilesystemStore_Save_DistinctIdentifiers(t *testing.T) {
	s := newTestFilesystemStore(t)

	seen := make(map[capsule.ID]bool)
	for i := 0; i < 20; i++ {
		id, err := s.Save(testEnvelope(""))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("Save() repeated identifier %s", id)
		}
		seen[id] = true
	}
}

func TestFilesystemStore_Save_NoOverwrite(t *testing.T) {
	root := filepath.Join(t.TempDir(), "capsules")
	s, err := NewFilesystemStore(root, testutil.NewStubIDGenerator(), capsule.NewNopLogger())
	if err != nil {
		t.Fatalf("NewFilesystemStore() error = %v", err)
	}

	// Pre-create the record the stub generator will mint first.
	if err := os.WriteFile(filepath.Join(root, "id-1.json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Save(testEnvelope("")); err == nil {
		t.Error("Save() onto existing record expected error")
	}
}

func TestFilesystemStore_Load_NotFound(t *testing.T) {
	s := newTestFilesystemStore(t)

	_, err := s.Load("f1b9c9f0-1111-4222-8333-444455556666")
	if !errors.Is(err, capsule.ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestFilesystemStore_SaveToLoadFrom(t *testing.T) {
	s := newTestFilesystemStore(t)

	location := filepath.Join(t.TempDir(), "note.json")
	if err := s.SaveTo(testEnvelope("explicit"), location); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	loaded, err := s.LoadFrom(location)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if loaded.Label != "explicit" {
		t.Errorf("label = %q, want %q", loaded.Label, "explicit")
	}

	if _, err := s.LoadFrom(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, capsule.ErrNotFound) {
		t.Errorf("LoadFrom() error = %v, want ErrNotFound", err)
	}
}

func TestFilesystemStore_List_SkipsCorruptRecords(t *testing.T) {
	s := newTestFilesystemStore(t)

	goodID, err := s.Save(testEnvelope("survivor"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// One corrupt record, one unrelated file, one badly named record.
	if err := os.WriteFile(filepath.Join(s.root, "corrupt.json"), []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.root, "README.txt"), []byte("hi"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.root, "..json"), []byte("{}"), 0600); err != nil {
		t.Fatal(err)
	}

	capsules, err := s.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(capsules) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(capsules))
	}
	if _, ok := capsules[goodID]; !ok {
		t.Errorf("List() missing well-formed record %s", goodID)
	}
}

func TestFilesystemStore_AtomicWrite(t *testing.T) {
	s := newTestFilesystemStore(t)

	if _, err := s.Save(testEnvelope("")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		t.Fatalf("reading storage root: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}
