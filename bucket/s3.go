package bucket

import (
	"bytes"
	"context"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/messif/metrickernel/mcmn"
)

// S3Store backs a Store with an AWS S3 bucket, using the SDK's managed
// uploader/downloader so large objects are transferred in parts rather
// than buffered in one request.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

func OpenS3(ctx context.Context, bucketName string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: load aws config")
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucketName,
	}, nil
}

func (s *S3Store) Get(ctx context.Context, locator string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &locator,
	})
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: s3 get")
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, mcmn.Wrap(err, "bucket: s3 read body")
	}
	return data, nil
}

func (s *S3Store) Put(ctx context.Context, locator string, data []byte) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &locator,
		Body:   bytes.NewReader(data),
	})
	return mcmn.Wrap(err, "bucket: s3 put")
}

func (s *S3Store) Delete(ctx context.Context, locator string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &locator,
	})
	return mcmn.Wrap(err, "bucket: s3 delete")
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &prefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return out, mcmn.Wrap(err, "bucket: s3 list")
		}
		for _, obj := range page.Contents {
			out = append(out, *obj.Key)
		}
	}
	return out, nil
}

func (s *S3Store) Close() error { return nil }
