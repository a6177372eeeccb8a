package modelstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goboost/config"
	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func trainedBooster(t *testing.T) *gbdt.Booster {
	t.Helper()
	cfg := gbdt.DefaultConfig()
	cfg.Iterations = 3
	b, err := gbdt.NewBooster(cfg)
	require.NoError(t, err)
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, b.Train(context.Background(), X, []float64{1, 1, 1, 4, 4, 4}))
	return b
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "models")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	ok, err := s.Exists(ctx, "a.gbdt")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Load(ctx, "a.gbdt")
	assert.True(t, IsNotFound(err))

	require.NoError(t, s.Save(ctx, "a.gbdt", []byte("first")))
	require.NoError(t, s.Save(ctx, "a.gbdt", []byte("second")))
	data, err := s.Load(ctx, "a.gbdt")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)

	ok, err = s.Exists(ctx, "a.gbdt")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must be cleaned up")
}

func TestFileStoreRejectsBadNames(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	for _, name := range []string{"", "..", "../escape", `a\b`, "dir/model"} {
		err := s.Save(context.Background(), name, []byte("x"))
		assert.True(t, errors.IsInvalidConfig(err), "name %q", name)
	}
}

func TestFileStoreHonorsContext(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Save(ctx, "m", []byte("x")), context.Canceled)
}

func TestBoosterRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := Open(config.StoreConfig{Kind: config.StoreFile, Dir: t.TempDir()})
	require.NoError(t, err)

	b := trainedBooster(t)
	require.NoError(t, SaveBooster(ctx, s, "reg.gbdt", b))

	loaded, err := LoadBooster(ctx, s, "reg.gbdt")
	require.NoError(t, err)
	want, err := b.Serialize()
	require.NoError(t, err)
	got, err := loaded.Serialize()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadBooster(ctx, s, "missing.gbdt")
	assert.True(t, IsNotFound(err))
}

func TestLoadBoosterRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "bad.gbdt", []byte("not a model")))

	_, err = LoadBooster(ctx, s, "bad.gbdt")
	assert.True(t, errors.IsInvalidFormat(err), "got %v", err)
}

func TestOpenRejectsUnknownKind(t *testing.T) {
	_, err := Open(config.StoreConfig{Kind: "ftp"})
	assert.True(t, errors.IsInvalidConfig(err))

	_, err = Open(config.StoreConfig{Kind: config.StoreMinio})
	assert.True(t, errors.IsInvalidConfig(err))
}

// s3Stub answers the minimal set of S3 requests used by MinioStore.
type s3Stub struct {
	mu      sync.Mutex
	objects map[string]bool
	puts    []string
}

func (s *s3Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/")
	_, _ = io.Copy(io.Discard, r.Body)

	switch r.Method {
	case http.MethodPut:
		s.objects[key] = true
		s.puts = append(s.puts, key)
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if !s.objects[key] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	default:
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
			`<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message>` +
			`<Key>` + key + `</Key><BucketName>models</BucketName></Error>`))
	}
}

func TestMinioStore(t *testing.T) {
	stub := &s3Stub{objects: make(map[string]bool)}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	s, err := NewMinioStore(MinioOptions{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "models",
		Region:    "us-east-1",
		Prefix:    "prod-",
	})
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "m.gbdt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "m.gbdt", []byte("model")))
	assert.Equal(t, []string{"models/prod-m.gbdt"}, stub.puts)

	ok, err = s.Exists(ctx, "m.gbdt")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Load(ctx, "other.gbdt")
	assert.True(t, IsNotFound(err), "got %v", err)
}
