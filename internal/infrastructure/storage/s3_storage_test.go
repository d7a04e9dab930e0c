package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/multipos/console/internal/infrastructure/config"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.StorageConfig
		want string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKeyID: "k", SecretAccessKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretAccessKey: "s"}, "access key is required"},
		{"missing secret", &config.StorageConfig{Bucket: "b", AccessKeyID: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3ObjectStorage(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestS3ObjectStorage_PresignIsLocal(t *testing.T) {
	s, err := NewS3ObjectStorage(&config.StorageConfig{
		Endpoint:        "localhost:9000",
		Bucket:          "exports",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		UsePathStyle:    true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, "exports", s.Bucket())
	assert.Equal(t, 15*time.Minute, s.presignExpiration)

	u, exp, err := s.GenerateDownloadURL(context.Background(), "exports/c1/a.csv", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://localhost:9000/exports/exports/c1/a.csv?"), u)
	assert.Contains(t, u, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	_, _, err = s.GenerateDownloadURL(context.Background(), "", 0)
	assert.Error(t, err)
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage("http://localhost:8090/files/")
	ctx := context.Background()

	_, _, err := m.GenerateDownloadURL(ctx, "x.csv", time.Minute)
	assert.Error(t, err)

	require.NoError(t, m.Upload(ctx, "exports/c 1/x.csv", []byte("a,b"), "text/csv"))
	u, _, err := m.GenerateDownloadURL(ctx, "exports/c 1/x.csv", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "http://localhost:8090/files/exports/c%201/x.csv?expires="), u)

	obj, ok := m.Get("exports/c 1/x.csv")
	require.True(t, ok)
	assert.Equal(t, "a,b", string(obj.Data))
	assert.Error(t, m.Upload(ctx, "", nil, ""))
}
