package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	exportapp "github.com/multipos/console/internal/application/export"
)

var _ exportapp.ObjectStorage = (*MemoryStorage)(nil)

// MemoryStorage keeps objects in process. It backs stored exports in
// development; its URLs are only meaningful to the BFF serving them.
type MemoryStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

// Object is one stored file.
type Object struct {
	Data        []byte
	ContentType string
	StoredAt    time.Time
}

// NewMemoryStorage creates a new MemoryStorage
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{BaseURL: strings.TrimRight(baseURL, "/"), objects: map[string]Object{}}
}

func (m *MemoryStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[storageKey] = Object{Data: append([]byte(nil), data...), ContentType: contentType, StoredAt: time.Now()}
	return nil
}

func (m *MemoryStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	m.mu.RLock()
	_, ok := m.objects[storageKey]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, errors.New("object not found: " + storageKey)
	}
	exp := time.Now().Add(expiresIn)
	u := m.BaseURL + "/" + (&url.URL{Path: storageKey}).EscapedPath() + "?expires=" + url.QueryEscape(exp.UTC().Format(time.RFC3339))
	return u, exp, nil
}

// Get returns a stored object.
func (m *MemoryStorage) Get(storageKey string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[storageKey]
	return o, ok
}
