package r2s3

import (
	"crypto/sha256"
	"encoding/hex"
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

	"tilecraft.ai/internal/logger"
)

type bucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	auth    []string
	hashes  []string
}

func (b *bucket) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		b.mu.Lock()
		b.objects[r.URL.Path] = body
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		b.hashes = append(b.hashes, r.Header.Get("x-amz-content-sha256"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}
}

func TestMirror_UploadsRelativeToDataDir(t *testing.T) {
	b := &bucket{objects: map[string][]byte{}}
	srv := httptest.NewServer(b.handler(t))
	defer srv.Close()

	dir := t.TempDir()
	file := filepath.Join(dir, "audit", "audit-2026-03-01-10.jsonl.zst")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("payload"), 0o644))

	m, err := NewMirror(Config{
		Endpoint:        srv.URL,
		Bucket:          "logs",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		Prefix:          "/world_1/",
	}, dir, logger.Discard())
	require.NoError(t, err)
	m.client.now = func() time.Time { return time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC) }

	m.Enqueue(file)
	m.Enqueue(filepath.Join(t.TempDir(), "elsewhere.zst"))
	m.Close()
	m.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Len(t, b.objects, 1)
	assert.Equal(t, []byte("payload"), b.objects["/logs/world_1/audit/audit-2026-03-01-10.jsonl.zst"])

	sum := sha256.Sum256([]byte("payload"))
	assert.Equal(t, hex.EncodeToString(sum[:]), b.hashes[0])
	assert.True(t, strings.HasPrefix(b.auth[0], "AWS4-HMAC-SHA256 Credential=AKID/20260301/auto/s3/aws4_request, SignedHeaders=host;x-amz-content-sha256;x-amz-date, Signature="))
}

func TestClient_SignIsDeterministic(t *testing.T) {
	c, err := NewClient("r2.example.com", "logs", "AKID", "secret")
	require.NoError(t, err)
	assert.Equal(t, "https://r2.example.com", c.endpoint)
	c.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	sign := func(secret string) string {
		c.secretAccessKey = secret
		req := httptest.NewRequest(http.MethodPut, "https://r2.example.com/logs/a.zst", nil)
		c.sign(req, "/logs/a.zst", "abc")
		return req.Header.Get("Authorization")
	}
	assert.Equal(t, sign("secret"), sign("secret"))
	assert.NotEqual(t, sign("secret"), sign("other"))
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient("", "logs", "a", "b")
	assert.Error(t, err)
	_, err = NewClient("https://", "logs", "a", "b")
	assert.Error(t, err)
}

func TestNormalizeObjectKey(t *testing.T) {
	assert.Equal(t, "a/b.zst", normalizeObjectKey(`\a\b.zst`))
	assert.Equal(t, "b.zst", normalizeObjectKey("a/../b.zst"))
	assert.Empty(t, normalizeObjectKey(" / "))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TC_MIRROR_ENDPOINT", "")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled())
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 25*time.Millisecond, cfg.EnqueueWait)

	t.Setenv("TC_MIRROR_ENDPOINT", "r2.example.com")
	t.Setenv("TC_MIRROR_QUEUE", "8")
	cfg, err = ConfigFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled())
	assert.Equal(t, 8, cfg.QueueCapacity)
}
