package objectstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/minio/minio-go/v7"
)

// MirrorLister lists data files from a bucket holding a mirror of the data
// lake. It satisfies the catalog package's Lister interface so self-hosted
// deployments can resolve files without the upstream market API.
type MirrorLister struct {
	client *minio.Client
	bucket string
}

func NewMirrorLister(client *minio.Client, bucket string) *MirrorLister {
	return &MirrorLister{client: client, bucket: bucket}
}

func (l *MirrorLister) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	if l == nil || l.client == nil {
		return nil, fmt.Errorf("mirror lister not initialized")
	}

	opts := minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}

	var files []string
	for object := range l.client.ListObjects(ctx, l.bucket, opts) {
		if object.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, object.Err)
		}
		files = append(files, object.Key)
	}
	sort.Strings(files)
	return files, nil
}
