// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the Client interface so snapshot archives can
// live on AWS S3 or a self-hosted MinIO instance, and so storage interactions can be
// mocked in tests (see core/storage/mocks).
//
// Snapshots are archived under "snapshots/<teacher email>/<timestamp>.json".
// LatestObject resolves the newest archive under such a prefix.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "classroom-snapshots")
package storage
