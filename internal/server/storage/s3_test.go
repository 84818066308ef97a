package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if in.ContentLength == nil || *in.ContentLength != int64(len(b)) {
		return nil, errors.New("content length mismatch")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[*in.Bucket+"/"+*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_RoundTrip(t *testing.T) {
	fake := newFakeS3()
	s := NewS3StoreWithClient(fake, "club")
	ctx := context.Background()

	n, err := s.Save(ctx, "1_a.txt", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Contains(t, fake.objects, "club/files/1_a.txt")

	rc, err := s.Open(ctx, "1_a.txt")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "payload", string(b))

	require.NoError(t, s.Delete(ctx, "1_a.txt"))
	assert.ErrorIs(t, s.Delete(ctx, "1_a.txt"), common.ErrorNotFound)

	_, err = s.Open(ctx, "1_a.txt")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestS3Store_PutError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	s := NewS3StoreWithClient(fake, "club")

	_, err := s.Save(context.Background(), "x", strings.NewReader("y"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestS3Store_SaveExistingKey(t *testing.T) {
	fake := newFakeS3()
	s := NewS3StoreWithClient(fake, "club")
	ctx := context.Background()

	_, err := s.Save(ctx, "dup", strings.NewReader("one"))
	require.NoError(t, err)

	r := strings.NewReader("two")
	_, err = s.Save(ctx, "dup", r)
	require.ErrorIs(t, err, common.ErrorConflict)
	assert.Equal(t, 3, r.Len(), "reader must not be consumed")
}

func TestNewS3Store_UsesSettings(t *testing.T) {
	origNew := newS3ClientFromConfig
	t.Cleanup(func() { newS3ClientFromConfig = origNew })

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) S3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		assert.Equal(t, "eu-west-1", cfg.Region)
		return newFakeS3()
	}

	s, err := NewS3Store(context.Background(), S3Settings{
		AccessKey: "ak", SecretKey: "sk", Bucket: "b", Region: "eu-west-1", BaseEndpoint: "http://minio:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "b", s.bucket)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://minio:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}
