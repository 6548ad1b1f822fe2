package service

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"go.uber.org/zap"
)

const testImage = "data:image/png;base64,"

func pngDataURI() string {
	return testImage + base64.StdEncoding.EncodeToString([]byte("\x89PNG fake image"))
}

// memImageStore keeps images in memory
type memImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemImageStore() *memImageStore {
	return &memImageStore{objects: make(map[string][]byte)}
}

func (m *memImageStore) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "/media/" + key
	m.objects[url] = data
	return url, nil
}

func (m *memImageStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, url)
	return nil
}

func (m *memImageStore) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

func newTestImages(t *testing.T) (*ImageService, *memImageStore) {
	t.Helper()
	store := newMemImageStore()
	return NewImageService(store, zap.NewNop()), store
}
