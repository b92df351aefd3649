package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// documentFileExtension is the file extension used for stored documents.
const documentFileExtension = ".json"

// tempFileSuffix marks a staged, not yet committed document.
const tempFileSuffix = ".tmp"

//nolint:gochecknoglobals // Stateless replacer.
var fileNameEscaper = strings.NewReplacer(
	"%", "%25",
	"/", "%2F",
	"\\", "%5C",
	":", "%3A",
	"*", "%2A",
	"?", "%3F",
	"\"", "%22",
	"<", "%3C",
	">", "%3E",
	"|", "%7C",
)

// FileStore keeps each document as a JSON file at
// <directory>/<collection>/<key>.json.
//
// A batch is staged as temporary files and renamed into place only after
// every staged write succeeded. A failure while staging leaves the
// collection untouched.
type FileStore struct {
	directory string

	mu sync.Mutex
}

// NewFileStore creates a file store rooted at directory, creating it if needed.
func NewFileStore(directory string) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("file store directory cannot be empty")
	}
	if err := os.MkdirAll(directory, 0750); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{directory: directory}, nil
}

// CommitBatch writes all documents or none of them.
func (s *FileStore) CommitBatch(ctx context.Context, collection string, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBatch(collection, writes); err != nil {
		return err
	}

	// Encode everything before touching the disk.
	payloads := make([][]byte, len(writes))
	for i, w := range writes {
		data, err := json.MarshalIndent(w.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal document %q: %w", w.Key, err)
		}
		payloads[i] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.ensureCollection(collection)
	if err != nil {
		return err
	}

	staged := make([]string, 0, len(writes))
	cleanup := func() {
		for _, p := range staged {
			_ = os.Remove(p + tempFileSuffix)
		}
	}

	for i, w := range writes {
		if ctxErr := ctx.Err(); ctxErr != nil {
			cleanup()
			return ctxErr
		}
		path := s.documentPath(dir, w.Key)
		if writeErr := os.WriteFile(path+tempFileSuffix, payloads[i], 0600); writeErr != nil {
			cleanup()
			return fmt.Errorf("failed to stage document %q: %w", w.Key, writeErr)
		}
		staged = append(staged, path)
	}

	for i, path := range staged {
		if renameErr := os.Rename(path+tempFileSuffix, path); renameErr != nil {
			staged = staged[i:]
			cleanup()
			return fmt.Errorf("failed to commit document %q: %w", writes[i].Key, renameErr)
		}
	}

	return nil
}

// Add writes data under a new time-ordered key.
func (s *FileStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := newID()
	if err := s.CommitBatch(ctx, collection, []Write{{Key: id, Data: data}}); err != nil {
		return "", err
	}
	return id, nil
}

// Get reads the document stored under key.
func (s *FileStore) Get(collection, key string) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.documentPath(s.collectionDir(collection), key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	var doc map[string]any
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

// Count returns the number of committed documents in collection.
func (s *FileStore) Count(collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.collectionDir(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read collection directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == documentFileExtension {
			count++
		}
	}
	return count, nil
}

// Close is a no-op; the file store holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) ensureCollection(collection string) (string, error) {
	dir := s.collectionDir(collection)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create collection directory: %w", err)
	}
	return dir, nil
}

func (s *FileStore) collectionDir(collection string) string {
	return filepath.Join(s.directory, fileNameEscaper.Replace(collection))
}

// documentPath maps a key to a file name without path separators or
// characters some filesystems reject.
func (s *FileStore) documentPath(dir, key string) string {
	return filepath.Join(dir, fileNameEscaper.Replace(key)+documentFileExtension)
}
