package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/clubhouse/internal/common"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Settings configures an S3-compatible endpoint (AWS or MinIO).
type S3Settings struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
}

// S3Store keeps blobs as objects under a fixed key prefix.
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// NewS3Store builds an S3 client from settings. Path-style addressing is used
// whenever a base endpoint is given, which is what MinIO expects.
func NewS3Store(ctx context.Context, st S3Settings) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(st.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(st.AccessKey, st.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if st.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(st.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3StoreWithClient(client, st.Bucket), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: "files/"}
}

func (s *S3Store) key(name string) *string {
	return aws.String(s.prefix + name)
}

// Save buffers r so the upload carries a content length. S3 overwrites
// silently, so an existing key is looked up first.
func (s *S3Store) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: s.key(name)})
	switch {
	case err == nil:
		return 0, fmt.Errorf("%w: %s exists", common.ErrorConflict, name)
	case !isNotFound(err):
		return 0, fmt.Errorf("s3 head %s: %w", name, err)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return 0, fmt.Errorf("read upload: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           s.key(name),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return 0, fmt.Errorf("s3 put %s: %w", name, err)
	}
	return n, nil
}

func (s *S3Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: s.key(name)})
	if err != nil {
		if isNotFound(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 get %s: %w", name, err)
	}
	return out.Body, nil
}

// Delete checks existence first because S3 deletes of missing keys succeed.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: s.key(name)}); err != nil {
		if isNotFound(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("s3 head %s: %w", name, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: s.key(name)}); err != nil {
		return fmt.Errorf("s3 delete %s: %w", name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
