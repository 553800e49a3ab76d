package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/adaptedu-backend/internal/platform/ctxutil"
	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type BucketConfig struct {
	Name        string
	Credentials string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
}

type BucketService interface {
	UploadFile(ctx context.Context, key, contentType string, file io.Reader) error
	DeleteFile(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

type bucketService struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewBucketService(log *logger.Logger, cfg BucketConfig) (BucketService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		return nil, fmt.Errorf("missing bucket name")
	}
	serviceLog := log.With("service", "BucketService")

	opts := ClientOptions(cfg.Credentials)
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host
		}
		opts = []option.ClientOption{option.WithoutAuthentication(), option.WithEndpoint(host + "/storage/v1/")}
	}
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog.Info("Object storage initialized", "bucket", name, "emulator", cfg.EmulatorHost != "")
	return &bucketService{log: serviceLog, client: client, bucket: name}, nil
}

func (bs *bucketService) UploadFile(ctx context.Context, key, contentType string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 2*time.Minute)
	defer cancel()

	w := bs.client.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	bs.log.Debug("object uploaded", "key", key)
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	err := bs.client.Bucket(bs.bucket).Object(key).Delete(ctxutil.Default(ctx))
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (bs *bucketService) Exists(ctx context.Context, key string) (bool, error) {
	_, err := bs.client.Bucket(bs.bucket).Object(key).Attrs(ctxutil.Default(ctx))
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.client == nil {
		return nil
	}
	return bs.client.Close()
}

// SourceKey is where an uploaded PDF is archived.
func SourceKey(userID, sessionID string) string {
	return fmt.Sprintf("uploads/%s/%s.pdf", userID, sessionID)
}
