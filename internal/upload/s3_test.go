package upload

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tsascii/errs"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, Config{}.Validate())
	require.False(t, Config{}.Enabled())

	cfg := Config{Endpoint: "minio:9000"}
	require.ErrorIs(t, cfg.Validate(), errs.ErrInvalidConfig)

	cfg.AccessKey, cfg.SecretKey = "key", "secret"
	err := cfg.Validate()
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
	require.Contains(t, err.Error(), "bucket")

	cfg.Bucket = "waveforms"
	require.NoError(t, cfg.Validate())
}

func TestConfig_ApplyEnv(t *testing.T) {
	env := map[string]string{
		"TSASCII_S3_ENDPOINT":   " minio:9000 ",
		"TSASCII_S3_ACCESS_KEY": "key",
		"TSASCII_S3_SECRET_KEY": "secret",
		"TSASCII_S3_BUCKET":     "waveforms",
		"TSASCII_S3_PREFIX":     "runs/2020",
		"TSASCII_S3_USE_SSL":    "true",
	}
	cfg := Config{Region: "eu-west-1", Bucket: "ignored"}
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	require.Equal(t, Config{
		Endpoint:  "minio:9000",
		Region:    "eu-west-1",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "waveforms",
		Prefix:    "runs/2020",
		UseSSL:    true,
	}, cfg)

	env["TSASCII_S3_USE_SSL"] = "maybe"
	require.ErrorIs(t, cfg.ApplyEnv(func(k string) string { return env[k] }), errs.ErrInvalidConfig)
}

func TestConfig_ObjectKey(t *testing.T) {
	require.Equal(t, "all.zip", Config{}.ObjectKey("/tmp/out/all.zip"))
	require.Equal(t, "runs/2020/all.txt", Config{Prefix: "/runs/2020/"}.ObjectKey("all.txt"))
}

func TestNew(t *testing.T) {
	_, err := New(Config{}, nil)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = New(Config{Endpoint: "minio:9000", AccessKey: "k"}, nil)
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	u, err := New(Config{Endpoint: "localhost:9000", AccessKey: "k", SecretKey: "s", Bucket: "b"}, nil)
	require.NoError(t, err)
	require.Equal(t, defaultRegion, u.cfg.Region)
}

func TestContentType(t *testing.T) {
	require.Equal(t, "application/zip", contentType("a.ZIP"))
	require.Equal(t, "text/plain", contentType("a.txt"))
	require.Equal(t, "application/octet-stream", contentType("a"))
}
