// Package minio is the S3-compatible asset store used for self-hosted buckets.
package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dev-tams/assetsweep/internal/storage"
)

type Options struct {
	Name      string
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type Storage struct {
	name   string
	bucket string
	api    *minio.Client
}

func New(opt Options) (*Storage, error) {
	if opt.Endpoint == "" || opt.Bucket == "" {
		return nil, fmt.Errorf("minio: endpoint and bucket are required")
	}
	client, err := minio.New(opt.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opt.AccessKey, opt.SecretKey, ""),
		Secure: opt.UseSSL,
		Region: opt.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: client: %w", err)
	}
	return &Storage{name: opt.Name, bucket: opt.Bucket, api: client}, nil
}

func (s *Storage) Name() string { return s.name }

func (s *Storage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}
	for obj := range s.api.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio list: %w", obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr("get", key, err)
	}
	defer obj.Close()

	// minio reports a missing key on the first read, not on GetObject
	b, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapErr("read", key, err)
	}
	return b, nil
}

func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil
		}
		return fmt.Errorf("minio delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) Close() error { return nil }

func mapErr(op, key string, err error) error {
	if isNoSuchKey(err) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("minio %s %s: %w", op, key, err)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
