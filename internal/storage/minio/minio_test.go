package minio

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-tams/assetsweep/internal/storage"
)

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Bucket: "b"})
	require.Error(t, err)

	s, err := New(Options{Name: "m", Endpoint: "localhost:9000", Bucket: "assets"})
	require.NoError(t, err)
	assert.Equal(t, "m", s.Name())
	require.NoError(t, s.Close())
}

func TestMapErrRecognisesNoSuchKey(t *testing.T) {
	err := mapErr("get", "asset:1", minio.ErrorResponse{Code: "NoSuchKey", Message: "gone"})
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	err = mapErr("get", "asset:1", minio.ErrorResponse{Code: "AccessDenied"})
	assert.False(t, errors.Is(err, storage.ErrNotFound))
	assert.Contains(t, err.Error(), "minio get asset:1")
}
