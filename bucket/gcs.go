package bucket

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/messif/metrickernel/mcmn"
)

// GCSStore backs a Store with a Google Cloud Storage bucket.
type GCSStore struct {
	client     *storage.Client
	bucketName string
}

func OpenGCS(ctx context.Context, bucketName string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: new gcs client")
	}
	return &GCSStore{client: client, bucketName: bucketName}, nil
}

func (g *GCSStore) bucket() *storage.BucketHandle { return g.client.Bucket(g.bucketName) }

func (g *GCSStore) Get(ctx context.Context, locator string) ([]byte, error) {
	r, err := g.bucket().Object(locator).NewReader(ctx)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: gcs get")
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: gcs read body")
	}
	return data, nil
}

func (g *GCSStore) Put(ctx context.Context, locator string, data []byte) error {
	w := g.bucket().Object(locator).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return mcmn.Wrap(err, "bucket: gcs write")
	}
	return mcmn.Wrap(w.Close(), "bucket: gcs close writer")
}

func (g *GCSStore) Delete(ctx context.Context, locator string) error {
	return mcmn.Wrap(g.bucket().Object(locator).Delete(ctx), "bucket: gcs delete")
}

func (g *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	it := g.bucket().Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return out, mcmn.Wrap(err, "bucket: gcs list")
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (g *GCSStore) Close() error { return g.client.Close() }
