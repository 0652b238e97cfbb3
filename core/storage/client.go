package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client is the subset of the object store the snapshot archive uses.
// Archives are written with PutObject and read back with GetObject;
// ListObjects finds a teacher's archives and the folder markers checked by
// the integrity feature, which also creates missing buckets.
type Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// GetObject returns the archive body. Callers close it.
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

const defaultTimeout = 30 * time.Second

// NewClient connects to S3 or MinIO. The connection is lazy, so a wrong
// endpoint surfaces on the first archive read or write, bounded by the
// configured timeout.
func NewClient(cfg Config) (Client, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	mc, err := minio.New(endpointHost(cfg.Endpoint), &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &archiveClient{Client: mc}, nil
}

// endpointHost strips the scheme; minio takes a bare host and a Secure flag.
func endpointHost(endpoint string) string {
	host := strings.TrimPrefix(endpoint, "http://")
	return strings.TrimPrefix(host, "https://")
}

// newTransport bounds every stage before the first response byte, so an
// unreachable store fails an import's archive step instead of hanging it.
func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: time.Second,
		ResponseHeaderTimeout: timeout,
	}
}

// archiveClient adapts *minio.Client to Client; only GetObject differs in
// its return type.
type archiveClient struct {
	*minio.Client
}

func (c *archiveClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// LatestObject returns the newest archive under prefix, by modification time
// and then by key. Folder markers are skipped. It returns an empty
// ObjectInfo and no error when nothing is archived under prefix.
func LatestObject(ctx context.Context, c Client, bucket, prefix string) (minio.ObjectInfo, error) {
	var latest minio.ObjectInfo
	for obj := range c.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return minio.ObjectInfo{}, fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue
		}
		if latest.Key == "" || obj.LastModified.After(latest.LastModified) ||
			(obj.LastModified.Equal(latest.LastModified) && obj.Key > latest.Key) {
			latest = obj
		}
	}
	return latest, nil
}
