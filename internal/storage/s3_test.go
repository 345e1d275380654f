package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/plugin-marketplace/internal/config"
)

type fakeS3Object struct {
	data        []byte
	contentType string
}

// fakeS3 serves the handful of path-style object calls the store makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeS3Object
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = fakeS3Object{data: data, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(obj.data)
		}
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func newTestS3Store(t *testing.T) (*S3BlobStore, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: make(map[string]fakeS3Object)}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewS3BlobStore(config.AWSConfig{
		Region:           "us-east-1",
		AccessKeyID:      "test",
		SecretAccessKey:  "test",
		S3Bucket:         "plugins-bucket",
		S3Endpoint:       srv.URL,
		S3ForcePathStyle: true,
	})
	require.NoError(t, err)
	return store, fake
}

func TestS3BlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestS3Store(t)

	require.NoError(t, store.Put(ctx, "plugins/a.jar", strings.NewReader("jar-bytes"), 9, "application/java-archive"))
	assert.True(t, fake.has("plugins-bucket/plugins/a.jar"))

	exists, err := store.Exists(ctx, "plugins/a.jar")
	require.NoError(t, err)
	assert.True(t, exists)

	obj, err := store.Open(ctx, "plugins/a.jar")
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "jar-bytes", string(data))
	assert.Equal(t, "application/java-archive", obj.ContentType)

	require.NoError(t, store.Delete(ctx, "plugins/a.jar"))
	assert.False(t, fake.has("plugins-bucket/plugins/a.jar"))
}

func TestS3BlobStoreMissingKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestS3Store(t)

	exists, err := store.Exists(ctx, "plugins/missing.jar")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Open(ctx, "plugins/missing.jar")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Delete(ctx, "plugins/missing.jar"))
}
