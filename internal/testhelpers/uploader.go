package testhelpers

import (
	"context"
	"fmt"
	"os"
)

// Upload is one call received by FakeUploader.
type Upload struct {
	Key  string
	Path string
	Body []byte
}

// FakeUploader records uploads in memory and fails for keys listed in FailKeys.
type FakeUploader struct {
	Bucket   string
	Region   string
	FailKeys map[string]error
	Uploads  []Upload
}

func NewFakeUploader() *FakeUploader {
	return &FakeUploader{
		Bucket:   "company-data-ai",
		Region:   "eu-north-1",
		FailKeys: map[string]error{},
	}
}

func (u *FakeUploader) Upload(ctx context.Context, key, path string) (string, error) {
	if err, ok := u.FailKeys[key]; ok {
		return "", err
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	u.Uploads = append(u.Uploads, Upload{Key: key, Path: path, Body: body})
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.Bucket, u.Region, key), nil
}
