package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const ContentTypePDF = "application/pdf"

// Uploader copies a staged file into durable object storage and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, path string) (string, error)
}

type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Uploader struct {
	bucket string
	region string
	client PutObjectAPI
}

// NewS3Uploader builds an uploader from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, bucket, region string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return NewS3UploaderFromClient(s3.NewFromConfig(cfg), bucket, region), nil
}

func NewS3UploaderFromClient(client PutObjectAPI, bucket, region string) *S3Uploader {
	return &S3Uploader{
		bucket: bucket,
		region: region,
		client: client,
	}
}

// PublicURL is the virtual-hosted address of key in the bucket.
func (s *S3Uploader) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func (s *S3Uploader) Upload(ctx context.Context, key, path string) (string, error) {
	if key == "" {
		return "", errors.New("object key is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", err
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(ContentTypePDF),
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	return s.PublicURL(key), nil
}
