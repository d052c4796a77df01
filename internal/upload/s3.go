// Package upload copies finished run outputs to S3-compatible object storage.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/arloliu/tsascii/errs"
)

const defaultRegion = "us-east-1"

// Config describes the destination bucket. Upload is disabled while Endpoint
// is empty.
type Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether an endpoint is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// Validate checks that an enabled configuration is complete.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.AccessKey) == "" || strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("%w: s3 access key and secret key are required", errs.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("%w: s3 bucket is required", errs.ErrInvalidConfig)
	}

	return nil
}

// ApplyEnv overrides fields from TSASCII_S3_* variables looked up with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Endpoint, "TSASCII_S3_ENDPOINT")
	set(&c.Region, "TSASCII_S3_REGION")
	set(&c.AccessKey, "TSASCII_S3_ACCESS_KEY")
	set(&c.SecretKey, "TSASCII_S3_SECRET_KEY")
	set(&c.Bucket, "TSASCII_S3_BUCKET")
	set(&c.Prefix, "TSASCII_S3_PREFIX")

	if raw := strings.TrimSpace(getenv("TSASCII_S3_USE_SSL")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: TSASCII_S3_USE_SSL=%q", errs.ErrInvalidConfig, raw)
		}
		c.UseSSL = v
	}

	return nil
}

// ObjectKey returns the key under which the local file at localPath is stored.
func (c Config) ObjectKey(localPath string) string {
	base := filepath.Base(localPath)
	prefix := strings.Trim(strings.TrimSpace(c.Prefix), "/")
	if prefix == "" {
		return base
	}

	return path.Join(prefix, base)
}

// Uploader puts local files into one bucket.
type Uploader struct {
	cfg    Config
	client *minio.Client
	logger *slog.Logger

	initOnce sync.Once
	initErr  error
}

// New creates an uploader. No network traffic happens until the first Upload.
func New(cfg Config, logger *slog.Logger) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: s3 endpoint is required", errs.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}
	cfg.Region = region

	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &Uploader{cfg: cfg, client: client, logger: logger}, nil
}

func (u *Uploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.cfg.Bucket)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		u.initErr = u.client.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{Region: u.cfg.Region})
	})

	return u.initErr
}

// Upload stores each local file under ObjectKey and returns the keys written.
func (u *Uploader) Upload(ctx context.Context, localPaths ...string) ([]string, error) {
	if err := u.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", u.cfg.Bucket, err)
	}

	keys := make([]string, 0, len(localPaths))
	for _, p := range localPaths {
		key := u.cfg.ObjectKey(p)
		info, err := u.client.FPutObject(ctx, u.cfg.Bucket, key, p, minio.PutObjectOptions{
			ContentType: contentType(p),
		})
		if err != nil {
			return keys, fmt.Errorf("upload %s: %w", p, err)
		}
		u.logger.Info("uploaded output",
			slog.String("path", p),
			slog.String("bucket", u.cfg.Bucket),
			slog.String("key", key),
			slog.Int64("bytes", info.Size),
		)
		keys = append(keys, key)
	}

	return keys, nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".zip":
		return "application/zip"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	case ".zst":
		return "application/zstd"
	default:
		return "application/octet-stream"
	}
}
