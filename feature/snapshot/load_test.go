package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"classroom-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTeacherPrefix(t *testing.T) {
	assert.Equal(t, "snapshots/t@example.com/", TeacherPrefix("", " T@Example.com "))
	assert.Equal(t, "archive/t@example.com/", TeacherPrefix("/archive/", "t@example.com"))
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("testdata/does-not-exist.json")
	assert.ErrorContains(t, err, "failed to open snapshot")
}

func TestArchiveAndLoadLatest(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	snap := Normalize(sampleSnapshot())
	at := time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC)

	var stored []byte
	client.On("PutObject", ctx, "bucket", "snapshots/t@example.com/20250201T103000.000Z.json",
		mock.Anything, mock.AnythingOfType("int64"), mock.Anything).
		Run(func(args mock.Arguments) {
			stored, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	key, err := Archive(ctx, client, "bucket", "snapshots", snap, at)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/t@example.com/20250201T103000.000Z.json", key)

	objects := make(chan minio.ObjectInfo, 1)
	objects <- minio.ObjectInfo{Key: key, LastModified: at}
	close(objects)
	client.On("ListObjects", ctx, "bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(objects))
	client.On("GetObject", ctx, "bucket", key, mock.Anything).Return(io.NopCloser(bytes.NewReader(stored)), nil)

	loaded, gotKey, err := LoadLatest(ctx, client, "bucket", "snapshots", "t@example.com")
	require.NoError(t, err)
	assert.Equal(t, key, gotKey)
	assert.True(t, Equal(Normalize(loaded), snap))
	client.AssertExpectations(t)
}

func TestLoadLatest_Empty(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	objects := make(chan minio.ObjectInfo)
	close(objects)
	client.On("ListObjects", ctx, "bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(objects))

	_, _, err := LoadLatest(ctx, client, "bucket", "snapshots", "t@example.com")
	assert.ErrorContains(t, err, "no snapshot archived")
}

func TestLoadObject_Error(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("GetObject", ctx, "bucket", "k", mock.Anything).Return(nil, errors.New("denied"))

	_, err := LoadObject(ctx, client, "bucket", "k")
	assert.ErrorContains(t, err, "denied")
}
