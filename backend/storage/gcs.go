package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"learnify/backend/utils"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	CredentialsFile string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost  string
	PublicBaseURL string
}

type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
	log     *utils.Logger
}

func NewGCSStore(ctx context.Context, cfg GCSConfig, log *utils.Logger) (*GCSStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is empty")
	}
	serviceLog := log.With("service", "GCSStore")

	var opts []option.ClientOption
	emulator := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
	switch {
	case emulator != "":
		_ = os.Setenv("STORAGE_EMULATOR_HOST", emulator)
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(storage.ScopeReadWrite))
	default:
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		if emulator != "" {
			baseURL = emulator + "/" + cfg.Bucket
		} else {
			baseURL = "https://storage.googleapis.com/" + cfg.Bucket
		}
	}

	serviceLog.Info("Object storage initialized",
		"mode", "gcs",
		"bucket", cfg.Bucket,
		"emulator_host", emulator,
		"public_base_url", baseURL,
	)
	return &GCSStore{client: client, bucket: cfg.Bucket, baseURL: baseURL, log: serviceLog}, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if !validKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return s.URL(key), nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

func (s *GCSStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}

func (s *GCSStore) KeyFromURL(rawURL string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, prefix)
	return key, validKey(key)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
