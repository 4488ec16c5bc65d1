// Ininicializing common application configuration
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ds124wfegd/randaug/internal/augment"
	"github.com/ds124wfegd/randaug/internal/entity"
	"github.com/ds124wfegd/randaug/internal/pkg/policyfile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Augment AugmentConfig `mapstructure:"augment"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
}

// AugmentConfig holds the default engine parameters for uploaded jobs.
type AugmentConfig struct {
	Variant    string `mapstructure:"variant"`
	N          int    `mapstructure:"n"`
	M          int    `mapstructure:"m"`
	FillColor  any    `mapstructure:"fill_color"`
	PolicyFile string `mapstructure:"policy_file"`
	Seed       uint64 `mapstructure:"seed"`
	Copies     int    `mapstructure:"copies"`
	Workers    int    `mapstructure:"workers"`
	MaxN       int    `mapstructure:"max_n"`
	MaxCopies  int    `mapstructure:"max_copies"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	Enabled   bool   `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("augment.variant", "randaugment")
	v.SetDefault("augment.n", 2)
	v.SetDefault("augment.m", 9)
	v.SetDefault("augment.fill_color", "black")
	v.SetDefault("augment.copies", 4)
	v.SetDefault("augment.workers", 4)
	v.SetDefault("augment.max_n", 16)
	v.SetDefault("augment.max_copies", 32)

	v.SetDefault("kafka.brokers", []string{"localhost:9094"})
	v.SetDefault("kafka.topic", "image-augmentation")
	v.SetDefault("kafka.group_id", "augmenter-service")

	v.SetDefault("storage.base_path", "./storage")

	v.SetDefault("metrics.namespace", "randaug")
	v.SetDefault("metrics.enabled", true)
}

// LoadConfig reads ./config/config.yaml on top of the defaults. A missing
// file is not an error. RANDAUG_* environment variables override both.
func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")
	viperInstance.SetEnvPrefix("randaug")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		logrus.Warn("config file not found, using defaults")
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := c.Augment.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the engine parameters. m outside [0, QuantizeLevel] is
// allowed and only logged.
func (a AugmentConfig) Validate() error {
	if _, err := augment.ParseVariant(a.Variant); err != nil {
		return err
	}
	if a.N < 0 {
		return fmt.Errorf("augment.n must be non-negative, got %d: %w", a.N, augment.ErrInvalidPolicy)
	}
	if a.Copies < 1 {
		return fmt.Errorf("augment.copies must be positive, got %d: %w", a.Copies, entity.ErrInvalidParams)
	}
	if a.Workers < 1 {
		return fmt.Errorf("augment.workers must be positive, got %d: %w", a.Workers, entity.ErrInvalidParams)
	}
	if a.MaxN < 0 || a.MaxCopies < 1 {
		return fmt.Errorf("augment.max_n must be non-negative and augment.max_copies positive: %w", entity.ErrInvalidParams)
	}
	if a.N > a.MaxN {
		return fmt.Errorf("augment.n %d exceeds augment.max_n %d: %w", a.N, a.MaxN, entity.ErrInvalidParams)
	}
	if a.Copies > a.MaxCopies {
		return fmt.Errorf("augment.copies %d exceeds augment.max_copies %d: %w", a.Copies, a.MaxCopies, entity.ErrInvalidParams)
	}
	if _, err := augment.ParseFillColor(a.FillColor); err != nil {
		return err
	}
	if a.M < 0 || a.M > augment.QuantizeLevel {
		logrus.WithField("m", a.M).Warnf("augment.m is outside [0, %d]; magnitudes will leave the table ranges", augment.QuantizeLevel)
	}
	return nil
}

// Table resolves the configured policy table, or the variant's built-in one.
func (a AugmentConfig) Table() (augment.Table, error) {
	if a.PolicyFile != "" {
		return policyfile.Load(a.PolicyFile)
	}
	variant, err := augment.ParseVariant(a.Variant)
	if err != nil {
		return augment.Table{}, err
	}
	if variant == augment.UDA {
		return augment.UDATable(), nil
	}
	return augment.DefaultTable(), nil
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
