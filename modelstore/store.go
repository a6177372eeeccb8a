// Package modelstore persists serialized boosters on local disk or in an
// S3-compatible bucket.
package modelstore

import (
	"context"
	"strings"

	"github.com/YuminosukeSato/goboost/config"
	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

// ErrNotFound is returned (wrapped) when a model name does not exist.
var ErrNotFound = errors.New("modelstore: model not found")

// IsNotFound reports whether err means the model does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store saves and loads model bytes by name.
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// Open returns the store described by cfg.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Kind {
	case config.StoreFile, "":
		return NewFileStore(cfg.Dir)
	case config.StoreMinio:
		return NewMinioStore(MinioOptions{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return nil, errors.NewValidationError("store.kind", "must be one of [file, minio]", cfg.Kind)
	}
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return errors.NewValidationError("name", "must be a plain, non-empty model name", name)
	}
	return nil
}

// SaveBooster serializes b and stores it under name.
func SaveBooster(ctx context.Context, s Store, name string, b *gbdt.Booster) error {
	data, err := b.Serialize()
	if err != nil {
		return err
	}
	if err := s.Save(ctx, name, data); err != nil {
		return errors.Wrapf(err, "modelstore: save %q", name)
	}
	log.GetLoggerWithName("modelstore").Info("Model saved", log.ModelNameKey, name, log.BytesKey, len(data))
	return nil
}

// LoadBooster reads name from s and decodes it into a trained booster.
func LoadBooster(ctx context.Context, s Store, name string, opts ...gbdt.Option) (*gbdt.Booster, error) {
	data, err := s.Load(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "modelstore: load %q", name)
	}
	b, err := gbdt.Load(data, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "modelstore: decode %q", name)
	}
	log.GetLoggerWithName("modelstore").Info("Model loaded", log.ModelNameKey, name, log.BytesKey, len(data))
	return b, nil
}
