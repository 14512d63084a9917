package memory

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tendant/simple-site/pkg/sitecontent"
)

type object struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// Store is an in-memory implementation of sitecontent.MediaStore
type Store struct {
	mu        sync.RWMutex
	objects   map[string]object
	urlPrefix string
}

// New creates a new in-memory media store. Objects are served under
// urlPrefix, e.g. "/api/content/media".
func New(urlPrefix string) *Store {
	return &Store{
		objects:   make(map[string]object),
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}
}

// Upload uploads content directly
func (s *Store) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: data, contentType: contentType, updatedAt: time.Now().UTC()}
	return nil
}

// Download downloads content directly
func (s *Store) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, sitecontent.ErrMediaNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Stat retrieves metadata for an object in memory
func (s *Store) Stat(ctx context.Context, key string) (*sitecontent.MediaAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, exists := s.objects[key]
	if !exists {
		return nil, sitecontent.ErrMediaNotFound
	}
	return &sitecontent.MediaAsset{
		Key:         key,
		URL:         s.urlPrefix + "/" + key,
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
		UpdatedAt:   obj.updatedAt,
	}, nil
}

// URL returns the path the API serves the object under
func (s *Store) URL(ctx context.Context, key string) (string, error) {
	return s.urlPrefix + "/" + key, nil
}

// Delete deletes content
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; !exists {
		return sitecontent.ErrMediaNotFound
	}
	delete(s.objects, key)
	return nil
}
