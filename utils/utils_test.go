package utils

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, ok := c.GetBytes(ctx, "missing")
	assert.False(t, ok)

	c.SetBytes(ctx, "k", []byte("v"), 50*time.Millisecond)
	b, ok := c.GetBytes(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), b)

	assert.Eventually(t, func() bool {
		_, ok := c.GetBytes(ctx, "k")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestNewCache_FallsBackToMemory(t *testing.T) {
	t.Parallel()
	assert.IsType(t, &MemoryCache{}, NewCache(nil))
}

func TestToken_RoundTrip(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("secret", 42, "root", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.StaffID)
	assert.Equal(t, "root", claims.Username)

	_, err = ParseToken("other-secret", tok)
	assert.Error(t, err)

	expired, err := GenerateToken("secret", 42, "root", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken("secret", expired)
	assert.Error(t, err)

	_, err = GenerateToken("", 1, "x", time.Hour)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	t.Parallel()

	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	hash, err := HashPassword("long-enough")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "long-enough"))
	assert.False(t, CheckPassword(hash, "long-enougH"))
}

func TestBlacklist_InMemory(t *testing.T) {
	t.Parallel()

	BlacklistToken("tok-a", time.Now().Add(time.Hour))
	assert.True(t, IsTokenBlacklisted("tok-a"))
	assert.False(t, IsTokenBlacklisted("tok-b"))

	BlacklistToken("tok-expired", time.Now().Add(-time.Second))
	assert.False(t, IsTokenBlacklisted("tok-expired"))
}

func TestSanitize(t *testing.T) {
	t.Parallel()
	out := Sanitize(`<b>Library</b><script>alert(1)</script><a href="javascript:x()">x</a>`)
	assert.Contains(t, out, "<b>Library</b>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestMediaStore_SaveImage(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	store := MediaStore{Root: root, URLPrefix: "/media/", MaxBytes: 1024}

	gif := append([]byte("GIF89a"), make([]byte, 32)...)
	url, err := store.SaveImage(fileHeader(t, "icon.exe", gif), "building_icons")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/building_icons/"), url)
	assert.True(t, strings.HasSuffix(url, ".gif"), "extension comes from the sniffed type")

	onDisk := filepath.Join(root, filepath.FromSlash(strings.TrimPrefix(url, "/media/")))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, gif, data)

	_, err = store.SaveImage(fileHeader(t, "a.png", []byte("hello")), "x")
	assert.ErrorIs(t, err, ErrNotImage)

	big := append([]byte("GIF89a"), make([]byte, 2048)...)
	_, err = store.SaveImage(fileHeader(t, "big.gif", big), "x")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
