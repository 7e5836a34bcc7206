package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLogFormat       = "text"
	DefaultMetadataTimeout = 5
	DefaultUploadTimeout   = 300
)

type Config struct {
	Region   string         `yaml:"region"`
	Log      LogConfig      `yaml:"log"`
	Metadata MetadataConfig `yaml:"metadata"`
	Upload   UploadConfig   `yaml:"upload"`
}

type LogConfig struct {
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type MetadataConfig struct {
	// Endpoint overrides the instance metadata address, mainly for tests.
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type UploadConfig struct {
	// Endpoint overrides the storage endpoint URL. The virtual-hosted
	// bucket host is still sent as the Host header so signatures stay valid.
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CABundleFile   string `yaml:"ca_bundle_file"`
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Format: DefaultLogFormat,
		},
		Metadata: MetadataConfig{
			TimeoutSeconds: DefaultMetadataTimeout,
		},
		Upload: UploadConfig{
			TimeoutSeconds: DefaultUploadTimeout,
		},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("config validation: log.format must be one of [text json], got %q", c.Log.Format))
	}
	if c.Metadata.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("config validation: metadata.timeout_seconds must be > 0"))
	}
	if c.Upload.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("config validation: upload.timeout_seconds must be > 0"))
	}
	if c.Upload.CABundleFile != "" {
		if _, err := os.Stat(c.Upload.CABundleFile); err != nil {
			errs = append(errs, fmt.Errorf("config validation: upload.ca_bundle_file: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
