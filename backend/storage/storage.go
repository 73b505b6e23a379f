package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"learnify/backend/config"
	"learnify/backend/utils"

	"github.com/google/uuid"
)

const (
	FolderImages          = "images"
	FolderVideos          = "videos"
	FolderDocuments       = "documents"
	FolderProfilePictures = "profilePictures"
)

var ErrInvalidKey = errors.New("invalid object key")

// Store keeps uploaded media and hands back public URLs for it.
type Store interface {
	// Put writes r under key, replacing any existing object, and returns its URL.
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	URL(key string) string
	// KeyFromURL maps a URL produced by this store back to its key.
	KeyFromURL(rawURL string) (string, bool)
}

// New builds the store selected by STORAGE_MODE.
func New(ctx context.Context, cfg *config.Config, log *utils.Logger) (Store, error) {
	switch cfg.StorageMode {
	case config.StorageLocal:
		return NewLocalStore(cfg.StorageDir, cfg.StoragePublicURL, log)
	case config.StorageGCS:
		return NewGCSStore(ctx, GCSConfig{
			Bucket:          cfg.GCSBucket,
			CredentialsFile: cfg.GCSCredentialsFile,
			EmulatorHost:    cfg.StorageEmulatorHost,
			PublicBaseURL:   cfg.StoragePublicURL,
		}, log)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.StorageMode)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ObjectKey builds "<folder>/<unix ms>-<random>_<filename>". The random part
// keeps same-named files uploaded in the same millisecond apart.
func ObjectKey(folder, filename string, now time.Time) string {
	return objectKey(folder, filename, now, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func objectKey(folder, filename string, now time.Time, id string) string {
	return fmt.Sprintf("%s/%d-%s_%s", folder, now.UnixMilli(), id, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		return "file"
	}
	return name
}

var uploadPrefix = regexp.MustCompile(`^\d+(-[0-9a-f]+)?_`)

// DisplayName returns the last path segment of a media URL or key with the
// upload prefix stripped.
func DisplayName(ref string) string {
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		ref = u.Path
	}
	name := path.Base(ref)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return uploadPrefix.ReplaceAllString(name, "")
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(key)
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".mp4"), strings.HasSuffix(s, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(s, ".webm"):
		return "video/webm"
	case strings.HasSuffix(s, ".mov"):
		return "video/quicktime"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	default:
		return ""
	}
}
