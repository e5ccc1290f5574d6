package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"voicefy/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+-[0-9a-f-]{36}\.[a-z0-9]+$`)

func TestObjectKey(t *testing.T) {
	key := objectKey("adam123", "Sample.WAV")
	assert.True(t, strings.HasPrefix(key, "adam123-"))
	assert.True(t, strings.HasSuffix(key, ".wav"))
	assert.Regexp(t, keyPattern, key)

	assert.True(t, strings.HasSuffix(objectKey("adam123", "blob"), ".mp3"))
	assert.True(t, strings.HasPrefix(objectKey("a/b c", "x.mp3"), "a_b_c-"))
	assert.NotEqual(t, objectKey("adam123", "a.mp3"), objectKey("adam123", "a.mp3"))
}

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("https://nyc3.digitaloceanspaces.com", false)
	assert.Equal(t, "nyc3.digitaloceanspaces.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://minio:9000/", true)
	assert.Equal(t, "minio:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.True(t, secure)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://voices.nyc3.digitaloceanspaces.com",
		publicBaseURL(config.S3Config{Bucket: "voices", Region: "nyc3"}))
	assert.Equal(t, "https://cdn.example.com",
		publicBaseURL(config.S3Config{PublicBaseURL: "https://cdn.example.com/"}))
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = "ftp"

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestDriveUploadPreview(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		perm  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/permissions") {
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			perm = string(body)
			mu.Unlock()
			_, _ = io.WriteString(w, `{"id":"perm1","type":"anyone","role":"reader"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"file123"}`)
	}))
	defer srv.Close()

	ds, err := drive.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/drive/v3/"))
	require.NoError(t, err)

	store := NewDriveStoreWithService(ds, "folder1", zap.NewNop())
	url, err := store.UploadPreview(context.Background(), "adam123", "preview.mp3", "audio/mpeg", []byte("mp3"))
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/uc?export=download&id=file123", url)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, paths, 2)
	assert.Contains(t, paths[1], "/files/file123/permissions")
	assert.Contains(t, perm, `"anyone"`)
	assert.Contains(t, perm, `"reader"`)
}
