package store

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/lehigh-university-libraries/photoloader/internal/config"
)

// digestMetaKey is stored as x-amz-meta-digest on every object
const digestMetaKey = "Digest"

// S3 stores each record as <prefix><id>.json in a bucket, with its digest in
// the object's user metadata
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
	region string
}

// OpenS3 creates a MinIO client and makes sure the bucket exists
func OpenS3(ctx context.Context, cfg config.Store) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	s := &S3{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, region: cfg.Region}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket creates the bucket when it is missing
func (s *S3) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

func objectKey(prefix, id string) string {
	return prefix + id + ".json"
}

func (s *S3) Set(ctx context.Context, entry Entry) error {
	if err := checkID(entry.ID); err != nil {
		return err
	}

	opts := minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: map[string]string{digestMetaKey: entry.Digest},
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(s.prefix, entry.ID), bytes.NewReader(entry.Data), int64(len(entry.Data)), opts)
	if err != nil {
		return fmt.Errorf("upload record %s: %w", entry.ID, err)
	}
	return nil
}

// Digest implements DigestReader
func (s *S3) Digest(ctx context.Context, id string) (string, bool, error) {
	info, err := s.client.StatObject(ctx, s.bucket, objectKey(s.prefix, id), minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
			return "", false, nil
		}
		return "", false, fmt.Errorf("stat record %s: %w", id, err)
	}
	return digestFromMetadata(info.UserMetadata), true, nil
}

// digestFromMetadata tolerates both the canonical and the raw header form
func digestFromMetadata(meta map[string]string) string {
	for _, key := range []string{digestMetaKey, "digest", "X-Amz-Meta-Digest"} {
		if v, ok := meta[key]; ok {
			return v
		}
	}
	return ""
}

func (s *S3) Close(ctx context.Context) error {
	return nil
}
