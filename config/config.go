// Package config loads booster, logging, metrics and model store settings
// from a file, the environment and plain maps.
//
// A file may be TOML, YAML or JSON (chosen by extension):
//
//	[booster]
//	objective = "multi:logloss"
//	max_depth = 4
//	iterations = 100
//
//	[log]
//	level = "debug"
//
// Every key can be overridden from the environment with the GOBOOST_ prefix,
// e.g. GOBOOST_BOOSTER_MAX_DEPTH=8. The key set is closed: a key that does
// not correspond to a setting is an InvalidConfig error naming it.
package config

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/goboost/gbdt"
	"github.com/YuminosukeSato/goboost/pkg/errors"
	"github.com/YuminosukeSato/goboost/pkg/log"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "GOBOOST"

// Store kinds.
const (
	StoreFile  = "file"
	StoreMinio = "minio"
)

// File is the complete configuration of a goboost process.
type File struct {
	Booster gbdt.Config   `mapstructure:"booster"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Store   StoreConfig   `mapstructure:"store"`
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

// StoreConfig describes where models are saved.
type StoreConfig struct {
	Kind      string `mapstructure:"kind" validate:"oneof=file minio"`
	Dir       string `mapstructure:"dir" validate:"required_if=Kind file"`
	Endpoint  string `mapstructure:"endpoint" validate:"required_if=Kind minio"`
	Bucket    string `mapstructure:"bucket" validate:"required_if=Kind minio"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// Default returns the configuration used when nothing is set.
func Default() File {
	return File{
		Booster: gbdt.DefaultConfig(),
		Log:     LogConfig{Level: "info"},
		Metrics: MetricsConfig{Addr: ":9090", Namespace: "goboost"},
		Store:   StoreConfig{Kind: StoreFile, Dir: "."},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return tagName(f)
	})
	return v
}

func tagName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// Load reads path (skipped when empty), applies GOBOOST_ environment
// overrides on top of the defaults and validates the result.
func Load(path string) (File, error) {
	v := newViper(true)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return File{}, errors.Wrapf(err, "config: read %s", path)
		}
	}
	f, err := decode(v)
	if err != nil {
		return File{}, err
	}
	log.GetLoggerWithName("config").Debug("Configuration loaded", "path", path, log.ObjectiveKey, f.Booster.Objective)
	return f, nil
}

// FromMap builds a booster configuration from booster keys such as
// "max_depth" or "learning_rate". Missing keys keep their defaults.
// Environment variables are not consulted, only params and the defaults.
func FromMap(params map[string]any) (gbdt.Config, error) {
	v := newViper(false)
	section := make(map[string]any, len(params))
	for k, val := range params {
		section[k] = val
	}
	if err := v.MergeConfigMap(map[string]any{"booster": section}); err != nil {
		return gbdt.Config{}, errors.Wrap(err, "config: merge parameters")
	}
	f, err := decode(v)
	if err != nil {
		return gbdt.Config{}, err
	}
	return f.Booster, nil
}

func newViper(env bool) *viper.Viper {
	v := viper.New()
	if env {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
	for key, val := range flatten(Default()) {
		v.SetDefault(key, val)
	}
	return v
}

func decode(v *viper.Viper) (File, error) {
	known := flatten(Default())
	var unknown []string
	for _, key := range v.AllKeys() {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return File{}, errors.NewValidationError(unknown[0], "unknown configuration key", v.Get(unknown[0]))
	}

	var f File
	if err := v.UnmarshalExact(&f); err != nil {
		return File{}, errors.NewValidationError("config", "cannot decode: "+err.Error(), nil)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks every section.
func (f File) Validate() error {
	if err := f.Booster.Validate(); err != nil {
		return err
	}
	if _, err := log.ToLogLevel(f.Log.Level); err != nil {
		return err
	}
	sections := []struct {
		prefix string
		value  any
	}{
		{"metrics", f.Metrics},
		{"store", f.Store},
	}
	for _, s := range sections {
		if err := validate.Struct(s.value); err != nil {
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				fe := fieldErrs[0]
				return errors.NewValidationError(s.prefix+"."+fe.Field(), "failed "+fe.Tag()+" rule", fe.Value())
			}
			return errors.Wrapf(err, "config: validate %s", s.prefix)
		}
	}
	return nil
}

// flatten returns every leaf key of a struct in dotted form.
func flatten(f File) map[string]any {
	out := make(map[string]any)
	walk("", reflect.ValueOf(f), out)
	return out
}

func walk(prefix string, v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := tagName(t.Field(i))
		if prefix != "" {
			key = prefix + "." + key
		}
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			walk(key, field, out)
			continue
		}
		out[key] = field.Interface()
	}
}
