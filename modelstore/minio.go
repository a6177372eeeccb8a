package modelstore

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

const modelContentType = "application/octet-stream"

// MinioOptions configures a MinioStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips bucket location lookups when set.
	Region string
	// Prefix is prepended to every object name.
	Prefix string
}

// MinioStore keeps models as objects in an S3-compatible bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
	prefix string
	logger log.Logger
}

// NewMinioStore creates the client. No request is made until the first
// operation.
func NewMinioStore(opts MinioOptions) (*MinioStore, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, errors.NewValidationError("store.endpoint", "endpoint and bucket are required", opts.Endpoint)
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "modelstore: connect %s", opts.Endpoint)
	}
	logger := log.GetLoggerWithName("modelstore.minio")
	logger.Debug("Minio store initialized", "endpoint", opts.Endpoint, log.StoreKey, opts.Bucket)
	return &MinioStore{client: client, bucket: opts.Bucket, prefix: opts.Prefix, logger: logger}, nil
}

func (s *MinioStore) object(name string) string { return s.prefix + name }

func (s *MinioStore) Save(ctx context.Context, name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	start := time.Now()
	_, err := s.client.PutObject(ctx, s.bucket, s.object(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: modelContentType,
	})
	if err != nil {
		s.logger.Error("Upload failed", err, "object", s.object(name))
		return errors.WithStack(err)
	}
	s.logger.Debug("Upload finished", "object", s.object(name), log.DurationMsKey, time.Since(start).Milliseconds())
	return nil
}

func (s *MinioStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.object(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(name, err)
	}
	return data, nil
}

func (s *MinioStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	_, err := s.client.StatObject(ctx, s.bucket, s.object(name), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, errors.WithStack(err)
	}
	return true, nil
}

func (s *MinioStore) translate(name string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return errors.Wrapf(ErrNotFound, "%s", name)
	}
	return errors.WithStack(err)
}
