// Package local provides a filesystem-backed media.Store.
package local

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/galleryapp/gallery-server/internal/id"
	"github.com/galleryapp/gallery-server/internal/media"
)

// URLPrefix is the route objects are served under.
const URLPrefix = "/media/"

// Storage keeps media objects as files below a root directory.
// Thread-safe for concurrent operations.
type Storage struct {
	root string
	mu   sync.RWMutex // Protects file operations
}

var _ media.Store = (*Storage)(nil)

// New creates a Storage rooted at dir, creating it if needed.
func New(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("media root cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Storage{root: dir}, nil
}

// FromURL creates a Storage for a file:// media URL.
func FromURL(raw string) (*Storage, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse media url: %w", err)
	}
	if u.Scheme != "file" {
		return nil, fmt.Errorf("unsupported media url scheme %q", u.Scheme)
	}
	dir := u.Path
	if u.Host != "" {
		// file://relative/path
		dir = filepath.Join(u.Host, u.Path)
	}
	return New(dir)
}

// Root returns the directory objects are stored in.
func (s *Storage) Root() string { return s.root }

// Upload writes data under a new public id in media.Folder.
// The file extension comes from the sniffed content type; anything that is
// not a known image is stored as .bin.
func (s *Storage) Upload(ctx context.Context, filename string, data []byte) (*media.Asset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	publicID, err := id.PublicID(media.Folder)
	if err != nil {
		return nil, err
	}

	contentType := http.DetectContentType(data)
	ext := extension(contentType)
	p := s.path(publicID + ext)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("create media folder: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return nil, fmt.Errorf("write media file: %w", err)
	}

	return &media.Asset{
		PublicID:    publicID,
		URL:         URLPrefix + publicID + ext,
		ContentType: contentType,
		Bytes:       len(data),
	}, nil
}

// Delete removes the object. A missing object reports media.ResultNotFound.
func (s *Storage) Delete(ctx context.Context, publicID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validPublicID(publicID) {
		return media.ResultNotFound, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.find(publicID)
	if !ok {
		return media.ResultNotFound, nil
	}
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return media.ResultNotFound, nil
		}
		return "", fmt.Errorf("delete media file: %w", err)
	}
	return media.ResultOK, nil
}

// URL returns the serving URL, including the stored extension when the
// object exists.
func (s *Storage) URL(publicID string) string {
	if !validPublicID(publicID) {
		return ""
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.find(publicID); ok {
		return URLPrefix + publicID + filepath.Ext(p)
	}
	return URLPrefix + publicID
}

// ServeHTTP serves objects below URLPrefix. Directories are never listed.
func (s *Storage) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), URLPrefix)
	if name == "" || !validPublicID(name) {
		http.NotFound(w, r)
		return
	}

	s.mu.RLock()
	f, err := os.Open(s.path(name))
	s.mu.RUnlock()
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	h := w.Header()
	h.Set("Cache-Control", "public, max-age=31536000, immutable")
	h.Set("X-Content-Type-Options", "nosniff")
	if ct, ok := imageExts[strings.ToLower(filepath.Ext(info.Name()))]; ok {
		h.Set("Content-Type", ct)
	} else {
		h.Set("Content-Type", "application/octet-stream")
		h.Set("Content-Disposition", "attachment")
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// find locates the file for publicID regardless of extension. Callers hold mu.
func (s *Storage) find(publicID string) (string, bool) {
	matches, err := filepath.Glob(s.path(publicID) + ".*")
	if err != nil || len(matches) == 0 {
		if _, err := os.Stat(s.path(publicID)); err == nil {
			return s.path(publicID), true
		}
		return "", false
	}
	return matches[0], true
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// validPublicID rejects ids that could escape the root.
func validPublicID(publicID string) bool {
	if publicID == "" || strings.Contains(publicID, "..") || strings.HasPrefix(publicID, "/") {
		return false
	}
	return !strings.ContainsAny(publicID, "\\*?[")
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return binaryExt
}

const binaryExt = ".bin"

// imageExts are the only extensions served inline.
var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}
