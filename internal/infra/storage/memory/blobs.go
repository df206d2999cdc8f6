package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"campuschat/internal/app/policies"
)

// BlobStore keeps attachments in memory and serves them under BaseURL.
type BlobStore struct {
	BaseURL string

	mu    sync.RWMutex
	items map[string]blob
	puts  int
}

type blob struct {
	data        []byte
	contentType string
}

func NewBlobStore(baseURL string) *BlobStore {
	return &BlobStore{BaseURL: strings.TrimRight(baseURL, "/"), items: make(map[string]blob)}
}

func (s *BlobStore) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	key := strings.TrimLeft(path, "/")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = blob{data: data, contentType: contentType}
	s.puts++
	return s.BaseURL + "/" + key, nil
}

func (s *BlobStore) Open(ctx context.Context, path string) (policies.StoredObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.items[strings.TrimLeft(path, "/")]
	if !ok {
		return policies.StoredObject{}, policies.ErrObjectNotFound
	}
	return policies.StoredObject{
		Body:        io.NopCloser(bytes.NewReader(b.data)),
		ContentType: b.contentType,
		Size:        int64(len(b.data)),
	}, nil
}

// Puts counts successful writes.
func (s *BlobStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

var _ policies.AttachmentStore = (*BlobStore)(nil)
