package checks

import (
	"context"
	"testing"

	"classroom-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var folders = []string{"snapshots", "exports/"}

func TestCheckStructure(t *testing.T) {
	t.Run("Bucket Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "classroom").Return(false, nil)

		_, err := CheckStructure(context.Background(), mockClient, "classroom", folders)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("All Missing", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "classroom").Return(true, nil)
		ch := make(chan minio.ObjectInfo)
		close(ch)
		mockClient.On("ListObjects", mock.Anything, "classroom", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

		missing, err := CheckStructure(context.Background(), mockClient, "classroom", folders)
		assert.NoError(t, err)
		assert.Equal(t, folders, missing)
	})

	t.Run("All Present", func(t *testing.T) {
		mockClient := new(mocks.Client)
		mockClient.On("BucketExists", mock.Anything, "classroom").Return(true, nil)

		for _, prefix := range []string{"snapshots/", "exports/"} {
			ch := make(chan minio.ObjectInfo, 1)
			ch <- minio.ObjectInfo{Key: prefix}
			close(ch)
			mockClient.On("ListObjects", mock.Anything, "classroom", mock.MatchedBy(func(opts minio.ListObjectsOptions) bool {
				return opts.Prefix == prefix
			})).Return((<-chan minio.ObjectInfo)(ch))
		}

		missing, err := CheckStructure(context.Background(), mockClient, "classroom", folders)
		assert.NoError(t, err)
		assert.Len(t, missing, 0)
	})
}

func TestFixStructure(t *testing.T) {
	logger := zap.NewNop()
	mockClient := new(mocks.Client)

	mockClient.On("PutObject", mock.Anything, "classroom", "snapshots/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	err := FixStructure(context.Background(), mockClient, "classroom", logger, []string{"snapshots"})
	assert.NoError(t, err)
	mockClient.AssertNumberOfCalls(t, "PutObject", 1)
}
