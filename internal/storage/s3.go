package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type S3Store struct {
	s3     s3iface.S3API
	bucket string
	base   string
}

func NewS3Store(region, bucket string) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return newS3Store(s3.New(sess), bucket), nil
}

func newS3Store(client s3iface.S3API, bucket string) *S3Store {
	return &S3Store{
		s3:     client,
		bucket: bucket,
		base:   fmt.Sprintf("https://%s.s3.amazonaws.com", bucket),
	}
}

func (c *S3Store) Upload(ctx context.Context, folder, name string, data []byte) (string, error) {
	contentType, ext, err := DetectImage(data)
	if err != nil {
		return "", err
	}

	key := objectKey(folder, name, ext)
	_, err = c.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return c.base + "/" + key, nil
}

func (c *S3Store) Delete(ctx context.Context, publicURL string) error {
	key, ok := keyFromURL(publicURL, c.base)
	if !ok {
		return fmt.Errorf("cannot derive object key from %q", publicURL)
	}

	_, err := c.s3.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
