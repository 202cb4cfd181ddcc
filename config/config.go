package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	SourceMemory = "memory"
	SourceDisk   = "disk"
	SourceS3     = "s3"
)

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Storage  StorageConfig `yaml:"storage"`
	Cache    CacheConfig   `yaml:"cache"`
	Planner  PlannerConfig `yaml:"planner"`
}

type StorageConfig struct {
	Source string `yaml:"source"`
	// URI is the base directory for disk storage.
	URI      string `yaml:"uri"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // S3 compatible services (minio, localstack)
}

type CacheConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

type PlannerConfig struct {
	Workers int `yaml:"workers"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Source: SourceDisk,
			URI:    ".",
			Region: "us-east-1",
		},
		Cache: CacheConfig{
			TTL:             5 * time.Minute,
			CleanupInterval: time.Hour,
		},
		Planner: PlannerConfig{
			Workers: 8,
		},
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "can not read config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "can not parse config %s", path)
	}
	return cfg, nil
}

// AddFlags registers the flags that can override a loaded config.
func AddFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("source", "s", d.Storage.Source, "where events are stored: memory, disk or s3")
	fs.StringP("uri", "u", d.Storage.URI, "base directory for disk storage")
	fs.String("bucket", d.Storage.Bucket, "s3 bucket")
	fs.String("region", d.Storage.Region, "s3 region")
	fs.String("endpoint", d.Storage.Endpoint, "s3 endpoint override")
	fs.Duration("cache-ttl", d.Cache.TTL, "how long query results are cached")
	fs.Int("workers", d.Planner.Workers, "days queried in parallel")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
}

// ApplyFlags copies every flag the user actually set into c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "source":
			c.Storage.Source = f.Value.String()
		case "uri":
			c.Storage.URI = f.Value.String()
		case "bucket":
			c.Storage.Bucket = f.Value.String()
		case "region":
			c.Storage.Region = f.Value.String()
		case "endpoint":
			c.Storage.Endpoint = f.Value.String()
		case "cache-ttl":
			c.Cache.TTL, err = fs.GetDuration(f.Name)
		case "workers":
			c.Planner.Workers, err = fs.GetInt(f.Name)
		case "log-level":
			c.LogLevel = f.Value.String()
		}
	})
	return err
}

func (c Config) Validate() error {
	switch c.Storage.Source {
	case SourceMemory, SourceDisk:
	case SourceS3:
		if c.Storage.Bucket == "" {
			return errors.Wrap(ErrInvalidConfig, "s3 storage needs a bucket")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "unsupported storage source %q", c.Storage.Source)
	}
	if c.Planner.Workers < 1 {
		return errors.Wrapf(ErrInvalidConfig, "workers must be at least 1, got %d", c.Planner.Workers)
	}
	if c.Cache.TTL < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative cache ttl %s", c.Cache.TTL)
	}
	return nil
}
