package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
)

// MemoryClient keeps objects in process, keyed by bucket and object name.
type MemoryClient struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ interfaces.ObjectStore = &MemoryClient{}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		objects: make(map[string][]byte),
	}
}

func memoryKey(bucket, object string) string {
	return bucket + "/" + object
}

// PutObject returns a writer whose content becomes visible on Close.
func (m *MemoryClient) PutObject(ctx context.Context, bucket, object string) io.WriteCloser {
	return &memoryWriter{
		client: m,
		key:    memoryKey(bucket, object),
	}
}

func (m *MemoryClient) GetObject(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.objects[memoryKey(bucket, object)]
	if !exists {
		return nil, goerr.New("object not found",
			goerr.V("bucket", bucket),
			goerr.V("object", object),
			goerr.T(errs.TagNotFound))
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

type memoryWriter struct {
	client *MemoryClient
	key    string

	mu     sync.Mutex
	buffer bytes.Buffer
	closed bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, goerr.New("writer is closed")
	}
	return w.buffer.Write(p)
}

func (w *memoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	w.client.mu.Lock()
	defer w.client.mu.Unlock()
	w.client.objects[w.key] = bytes.Clone(w.buffer.Bytes())
	return nil
}
