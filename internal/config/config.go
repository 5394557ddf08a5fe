package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Version       int                  `mapstructure:"version" validate:"gt=0"`
	Log           LogConfig            `mapstructure:"log"`
	Store         StoreConfig          `mapstructure:"store"`
	Cleanup       CleanupConfig        `mapstructure:"cleanup"`
	Schedules     []ScheduleConfig     `mapstructure:"schedules" validate:"dive"`
	Notifications []NotificationConfig `mapstructure:"notifications" validate:"dive"`
	Metrics       MetricsConfig        `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=console json"`
}

type StoreConfig struct {
	Type   string       `mapstructure:"type" validate:"required,oneof=badger s3 minio local"`
	Prefix string       `mapstructure:"prefix"`
	Badger BadgerConfig `mapstructure:"badger"`
	S3     S3Config     `mapstructure:"s3"`
	Minio  MinioConfig  `mapstructure:"minio"`
	Local  LocalConfig  `mapstructure:"local"`
}

type BadgerConfig struct {
	Path     string `mapstructure:"path"`
	InMemory bool   `mapstructure:"in_memory"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type LocalConfig struct {
	Path string `mapstructure:"path"`
}

type CleanupConfig struct {
	BatchSize  int              `mapstructure:"batch_size" validate:"gt=0"`
	DeleteRate float64          `mapstructure:"delete_rate" validate:"gte=0"`
	Junk       JunkConfig       `mapstructure:"junk"`
	LowQuality LowQualityConfig `mapstructure:"low_quality"`
	Duplicates DuplicatesConfig `mapstructure:"duplicates"`
	Preview    PreviewConfig    `mapstructure:"preview"`
}

type JunkConfig struct {
	MaxDeletions int `mapstructure:"max_deletions" validate:"gte=0"`
}

type LowQualityConfig struct {
	MaxDeletions     int  `mapstructure:"max_deletions" validate:"gte=0"`
	QualityThreshold int  `mapstructure:"quality_threshold" validate:"gte=0"`
	ExcludeJunk      bool `mapstructure:"exclude_junk"`
}

type DuplicatesConfig struct {
	MaxDeletions int    `mapstructure:"max_deletions" validate:"gte=0"`
	KeepStrategy string `mapstructure:"keep_strategy"`
}

type PreviewConfig struct {
	MaxPreview       int    `mapstructure:"max_preview" validate:"gte=0"`
	QualityThreshold int    `mapstructure:"quality_threshold" validate:"gte=0"`
	KeepStrategy     string `mapstructure:"keep_strategy"`
}

type ScheduleConfig struct {
	Name   string `mapstructure:"name" validate:"required"`
	Mode   string `mapstructure:"mode" validate:"required,oneof=junk low_quality duplicates analyze"`
	Cron   string `mapstructure:"cron" validate:"required"`
	DryRun bool   `mapstructure:"dry_run"`
}

type NotificationConfig struct {
	Type   string              `mapstructure:"type" validate:"required"`
	On     []string            `mapstructure:"on"`
	Config NotificationDetails `mapstructure:"config"`
}

type NotificationDetails struct {
	SMTPHost string            `mapstructure:"smtp_host"`
	SMTPPort int               `mapstructure:"smtp_port"`
	From     string            `mapstructure:"from"`
	To       string            `mapstructure:"to"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Defaults applied before the file is read; keys not present in the file keep these.
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("store.prefix", "asset:")
	v.SetDefault("store.badger.path", "./data/assets")
	v.SetDefault("cleanup.batch_size", 50)
	v.SetDefault("cleanup.delete_rate", 0)
	v.SetDefault("cleanup.junk.max_deletions", 1000)
	v.SetDefault("cleanup.low_quality.max_deletions", 500)
	v.SetDefault("cleanup.low_quality.quality_threshold", 30)
	v.SetDefault("cleanup.low_quality.exclude_junk", true)
	v.SetDefault("cleanup.duplicates.max_deletions", 300)
	v.SetDefault("cleanup.duplicates.keep_strategy", "highest_quality")
	v.SetDefault("cleanup.preview.max_preview", 50)
	v.SetDefault("cleanup.preview.quality_threshold", 30)
	v.SetDefault("cleanup.preview.keep_strategy", "highest_quality")
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ModifyConfig(&cfg)

	return &cfg, nil
}

// ModifyConfig expands ${VAR} references so secrets can live in the environment.
func ModifyConfig(cfg *Config) {
	st := &cfg.Store
	st.Type = strings.ToLower(os.ExpandEnv(st.Type))
	st.Prefix = os.ExpandEnv(st.Prefix)
	st.Badger.Path = os.ExpandEnv(st.Badger.Path)
	st.S3.Bucket = os.ExpandEnv(st.S3.Bucket)
	st.S3.Region = os.ExpandEnv(st.S3.Region)
	st.S3.Prefix = os.ExpandEnv(st.S3.Prefix)
	st.S3.Endpoint = os.ExpandEnv(st.S3.Endpoint)
	st.S3.AccessKey = os.ExpandEnv(st.S3.AccessKey)
	st.S3.SecretKey = os.ExpandEnv(st.S3.SecretKey)
	st.Minio.Endpoint = os.ExpandEnv(st.Minio.Endpoint)
	st.Minio.Bucket = os.ExpandEnv(st.Minio.Bucket)
	st.Minio.Region = os.ExpandEnv(st.Minio.Region)
	st.Minio.AccessKey = os.ExpandEnv(st.Minio.AccessKey)
	st.Minio.SecretKey = os.ExpandEnv(st.Minio.SecretKey)
	st.Local.Path = os.ExpandEnv(st.Local.Path)

	for i := range cfg.Schedules {
		s := &cfg.Schedules[i]
		s.Name = os.ExpandEnv(s.Name)
		s.Cron = os.ExpandEnv(s.Cron)
	}

	for i := range cfg.Notifications {
		nt := &cfg.Notifications[i]
		nt.Type = os.ExpandEnv(nt.Type)
		for j := range nt.On {
			nt.On[j] = os.ExpandEnv(nt.On[j])
		}
		nt.Config.SMTPHost = os.ExpandEnv(nt.Config.SMTPHost)
		nt.Config.From = os.ExpandEnv(nt.Config.From)
		nt.Config.To = os.ExpandEnv(nt.Config.To)
		nt.Config.Username = os.ExpandEnv(nt.Config.Username)
		nt.Config.Password = os.ExpandEnv(nt.Config.Password)
		nt.Config.URL = os.ExpandEnv(nt.Config.URL)
		for k, v := range nt.Config.Headers {
			nt.Config.Headers[k] = os.ExpandEnv(v)
		}
	}

	cfg.Metrics.Addr = os.ExpandEnv(cfg.Metrics.Addr)
}
