package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Config holds the bucket and credentials for S3 uploads
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Store keeps files in an S3 bucket
type S3Store struct {
	client s3iface.S3API
	bucket string
	region string
}

// NewS3Store creates an S3 client. Empty keys fall back to the default
// credential chain.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &S3Store{client: s3.New(sess), bucket: cfg.Bucket, region: cfg.Region}, nil
}

// newS3StoreWithClient is used by tests
func newS3StoreWithClient(client s3iface.S3API, bucket, region string) *S3Store {
	return &S3Store{client: client, bucket: bucket, region: region}
}

// Save uploads r under a uuid-prefixed key
func (s *S3Store) Save(ctx context.Context, originalName, contentType string, r io.Reader) (*Object, error) {
	if !AllowedExtension(originalName) {
		return nil, ErrUnsupportedType
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("failed to read file buffer: %w", err)
	}
	size := int64(buf.Len())

	key := "facility_photos/" + ObjectName(originalName)
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return &Object{
		Name:        key[len("facility_photos/"):],
		Path:        key,
		URL:         fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Delete removes an object by key
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}
