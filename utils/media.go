package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrFileTooLarge is returned when an upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds upload size limit")
	// ErrNotImage is returned when the upload is not a supported image type.
	ErrNotImage = errors.New("only png, jpeg, gif and webp images are accepted")
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaStore saves uploaded images under Root and serves them from URLPrefix.
type MediaStore struct {
	Root      string
	URLPrefix string
	MaxBytes  int64
}

// SaveImage stores an uploaded image under <root>/<subdir>/<yyyy>/<mm>/ and returns its public URL.
func (m MediaStore) SaveImage(header *multipart.FileHeader, subdir string) (string, error) {
	if m.MaxBytes > 0 && header.Size > m.MaxBytes {
		return "", ErrFileTooLarge
	}
	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// Sniff the real type instead of trusting the client-supplied name.
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		return "", ErrNotImage
	}

	now := time.Now().UTC()
	rel := path.Join(strings.Trim(subdir, "/"), now.Format("2006"), now.Format("01"))
	dir := filepath.Join(m.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer out.Close()

	limit := m.MaxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	lr := &io.LimitedReader{R: io.MultiReader(bytes.NewReader(head[:n]), src), N: limit + 1}
	written, err := io.Copy(out, lr)
	if err == nil && written > limit {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", err
	}

	return strings.TrimRight(m.URLPrefix, "/") + "/" + path.Join(rel, name), nil
}
