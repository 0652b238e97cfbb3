package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"classroom-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// LoadFile decodes a snapshot from a JSON file.
func LoadFile(filePath string) (*Snapshot, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", filePath, err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadObject decodes a snapshot stored as an object.
func LoadObject(ctx context.Context, client storage.Client, bucket, key string) (*Snapshot, error) {
	obj, err := client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}
	defer obj.Close()
	return Decode(obj)
}

// LoadLatest decodes the newest archived snapshot for a teacher.
func LoadLatest(ctx context.Context, client storage.Client, bucket, prefix, email string) (*Snapshot, string, error) {
	info, err := storage.LatestObject(ctx, client, bucket, TeacherPrefix(prefix, email))
	if err != nil {
		return nil, "", err
	}
	if info.Key == "" {
		return nil, "", fmt.Errorf("no snapshot archived for %s", email)
	}
	snap, err := LoadObject(ctx, client, bucket, info.Key)
	return snap, info.Key, err
}

// Archive stores the snapshot under the teacher's prefix and returns the object key.
func Archive(ctx context.Context, client storage.Client, bucket, prefix string, s *Snapshot, at time.Time) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := path.Join(TeacherPrefix(prefix, s.Teacher.Email), at.UTC().Format("20060102T150405.000Z")+".json")
	_, err = client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive snapshot %s: %w", key, err)
	}
	return key, nil
}

// TeacherPrefix returns the storage prefix holding a teacher's snapshots.
func TeacherPrefix(prefix, email string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "snapshots"
	}
	return prefix + "/" + strings.ToLower(strings.TrimSpace(email)) + "/"
}
