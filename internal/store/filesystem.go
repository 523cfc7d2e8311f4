// Package store provides the persistence backends for capsule envelopes:
// filesystem, sqlite, s3, and an in-memory implementation for tests.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"timecapsule/internal/capsule"
)

// recordExt is the suffix for envelope record files and object keys.
const recordExt = ".json"

// FilesystemStore persists one JSON record per envelope under a root
// directory, created on first use:
//
//	<root>/
//	  <id>.json
type FilesystemStore struct {
	root   string
	idgen  capsule.IDGenerator
	logger capsule.Logger
}

var _ capsule.Store = (*FilesystemStore)(nil)

// NewFilesystemStore creates a store rooted at the given directory,
// creating it if absent.
func NewFilesystemStore(root string, idgen capsule.IDGenerator, logger capsule.Logger) (*FilesystemStore, error) {
	if root == "" {
		return nil, fmt.Errorf("filesystem store requires a root directory")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &FilesystemStore{root: root, idgen: idgen, logger: logger}, nil
}

// Save writes the envelope under a freshly minted identifier.
// An existing record for the same identifier is never overwritten.
func (s *FilesystemStore) Save(env *capsule.Envelope) (capsule.ID, error) {
	id, err := capsule.ParseID(s.idgen.New())
	if err != nil {
		return "", fmt.Errorf("minting identifier: %w", err)
	}
	path := s.recordPath(id)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("record already exists for identifier %s", id)
	}
	if err := writeRecord(env, path); err != nil {
		return "", err
	}
	return id, nil
}

// SaveTo writes the envelope to an explicit file path.
func (s *FilesystemStore) SaveTo(env *capsule.Envelope, location string) error {
	return writeRecord(env, location)
}

// Load reads the record for the given identifier from the storage root.
func (s *FilesystemStore) Load(id capsule.ID) (*capsule.Envelope, error) {
	return readRecord(s.recordPath(id))
}

// LoadFrom reads the record at an explicit file path.
func (s *FilesystemStore) LoadFrom(location string) (*capsule.Envelope, error) {
	return readRecord(location)
}

// List enumerates all records in the storage root. Records that fail to read
// or parse are skipped with a warning so one corrupt file cannot hide the
// rest of the archive.
func (s *FilesystemStore) List() (map[capsule.ID]*capsule.Envelope, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("reading storage root: %w", err)
	}

	out := make(map[capsule.ID]*capsule.Envelope)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id, err := capsule.ParseID(strings.TrimSuffix(name, recordExt))
		if err != nil {
			s.logger.Warn("skipping record with invalid name", "name", name, "error", err)
			continue
		}
		env, err := readRecord(filepath.Join(s.root, name))
		if err != nil {
			s.logger.Warn("skipping unreadable record", "id", id, "error", err)
			continue
		}
		out[id] = env
	}
	return out, nil
}

func (s *FilesystemStore) recordPath(id capsule.ID) string {
	return filepath.Join(s.root, id.String()+recordExt)
}

// writeRecord serializes the envelope and writes it atomically (temp file +
// rename) so a crash never leaves a partially written record behind.
func writeRecord(env *capsule.Envelope, path string) error {
	data, err := marshalEnvelope(env)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing record: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	success = true
	return nil
}

func readRecord(path string) (*capsule.Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, capsule.ErrNotFound)
		}
		return nil, fmt.Errorf("reading record %s: %w", path, err)
	}
	return unmarshalEnvelope(data, path)
}

func marshalEnvelope(env *capsule.Envelope) ([]byte, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing capsule: %w", err)
	}
	return append(data, '\n'), nil
}

func unmarshalEnvelope(data []byte, source string) (*capsule.Envelope, error) {
	var env capsule.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing record %s: %w", source, err)
	}
	return &env, nil
}
