// Package minioblob keeps immutable timestamped snapshots of scraped points
// and composed tweets in object storage, one object per write.
package minioblob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"brainlift_tracker/internal/domain"
)

const timestampLayout = "20060102T150405.000Z"

// Config holds object storage configuration.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store implements the snapshot blob store contract on MinIO/S3.
type Store struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// New connects to object storage and ensures the bucket exists.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Store{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With("component", "minioblob"),
	}, nil
}

func objectKey(projectID, kind string, ts time.Time) string {
	return path.Join(projectID, kind, ts.UTC().Format(timestampLayout)+".json")
}

// Put writes one immutable snapshot object.
func (s *Store) Put(ctx context.Context, projectID, kind string, ts time.Time, payload []byte) error {
	key := objectKey(projectID, kind, ts)
	_, err := s.client.PutObject(ctx, s.bucket, key,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return fmt.Errorf("put snapshot %s: %w", key, err)
	}
	return nil
}

// Latest returns the most recent snapshot payload of the given kind for a
// project, or domain.ErrSnapshotNotFound when none exists.
func (s *Store) Latest(ctx context.Context, projectID, kind string) ([]byte, error) {
	prefix := path.Join(projectID, kind) + "/"

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list snapshots %s: %w", prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	if len(keys) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}

	// Timestamped key names sort chronologically.
	sort.Strings(keys)
	latest := keys[len(keys)-1]

	obj, err := s.client.GetObject(ctx, s.bucket, latest, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", latest, err)
	}
	defer obj.Close()

	payload, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", latest, err)
	}
	return payload, nil
}

// Cleanup removes scraped snapshots older than the retention window. Tweet
// snapshots are kept indefinitely.
func (s *Store) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	removed := 0

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return removed, fmt.Errorf("list snapshots: %w", obj.Err)
		}
		if !strings.Contains(obj.Key, "/"+domain.SnapshotKindScraped+"/") {
			continue
		}
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn("failed to remove expired snapshot", "key", obj.Key, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("removed expired scraped snapshots", "count", removed, "older_than", olderThan)
	}
	return removed, nil
}
