// Package config loads msgfscorer configuration from a YAML file and the
// environment. Environment variables override file values.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/feiyue126/msgfplus/pkg/observability"
	"github.com/feiyue126/msgfplus/pkg/paramsource"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://msgfplus.local/schemas/config.schema.json"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds scorer configuration.
type Config struct {
	LogLevel      string              `yaml:"log_level"`
	ParamsDir     string              `yaml:"params_dir"`
	Preload       bool                `yaml:"preload"`
	Override      OverrideConfig      `yaml:"override"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// OverrideConfig selects and configures the user override source.
type OverrideConfig struct {
	Type     string `yaml:"type"` // none | dir | s3 | gcs | sql | redis
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`

	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`

	Driver string `yaml:"driver"` // sqlite | postgres | pgx
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	MaxRPS   float64 `yaml:"max_rps"`
	MaxBurst int     `yaml:"max_burst"`
}

// ObservabilityConfig configures OTLP export.
type ObservabilityConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	Environment string  `yaml:"environment"`
	SampleRate  float64 `yaml:"sample_rate"`
	CAFile      string  `yaml:"ca_file"`
}

// Default returns the configuration used when nothing is set: override
// files are read from ./params.
func Default() *Config {
	obs := observability.DefaultConfig()
	return &Config{
		LogLevel:  "INFO",
		ParamsDir: "params",
		Override: OverrideConfig{
			Type:   string(paramsource.TypeDir),
			Driver: "sqlite",
			Table:  paramsource.DefaultTable,
		},
		Observability: ObservabilityConfig{
			Enabled:     obs.Enabled,
			Endpoint:    obs.OTLPEndpoint,
			ServiceName: obs.ServiceName,
			Environment: obs.Environment,
			SampleRate:  obs.SampleRate,
		},
	}
}

// Load loads configuration from defaults and environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile loads the YAML file at path, validates it against the
// configuration schema, and applies environment overrides on top.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func validateDocument(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if doc == nil {
		return nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config is not representable as JSON: %w", err)
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("config is not representable as JSON: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return fmt.Errorf("config schema load failed: %w", err)
	}
	schema, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("config schema compile failed: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(dst *bool, key string) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	setString(&c.LogLevel, "MSGF_LOG_LEVEL")
	setString(&c.ParamsDir, "MSGF_PARAMS_DIR")
	if err := setBool(&c.Preload, "MSGF_PRELOAD"); err != nil {
		return err
	}

	setString(&c.Override.Type, "MSGF_OVERRIDE_TYPE")
	setString(&c.Override.Bucket, "MSGF_OVERRIDE_BUCKET")
	setString(&c.Override.Region, "AWS_REGION")
	setString(&c.Override.Region, "MSGF_OVERRIDE_REGION")
	setString(&c.Override.Endpoint, "MSGF_OVERRIDE_ENDPOINT")
	setString(&c.Override.Prefix, "MSGF_OVERRIDE_PREFIX")
	setString(&c.Override.AccessKeyID, "MSGF_OVERRIDE_ACCESS_KEY_ID")
	setString(&c.Override.SecretAccessKey, "MSGF_OVERRIDE_SECRET_ACCESS_KEY")
	setString(&c.Override.Driver, "MSGF_SQL_DRIVER")
	setString(&c.Override.DSN, "MSGF_SQL_DSN")
	setString(&c.Override.Table, "MSGF_SQL_TABLE")
	setString(&c.Override.RedisAddr, "MSGF_REDIS_ADDR")
	setString(&c.Override.RedisPassword, "MSGF_REDIS_PASSWORD")
	if v := os.Getenv("MSGF_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MSGF_REDIS_DB: %w", err)
		}
		c.Override.RedisDB = db
	}
	if v := os.Getenv("MSGF_OVERRIDE_MAX_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MSGF_OVERRIDE_MAX_RPS: %w", err)
		}
		c.Override.MaxRPS = rps
	}
	if v := os.Getenv("MSGF_OVERRIDE_MAX_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MSGF_OVERRIDE_MAX_BURST: %w", err)
		}
		c.Override.MaxBurst = burst
	}

	if err := setBool(&c.Observability.Enabled, "MSGF_OTEL_ENABLED"); err != nil {
		return err
	}
	if err := setBool(&c.Observability.Insecure, "MSGF_OTEL_INSECURE"); err != nil {
		return err
	}
	setString(&c.Observability.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&c.Observability.ServiceName, "OTEL_SERVICE_NAME")
	setString(&c.Observability.CAFile, "MSGF_OTEL_CA_FILE")
	if v := os.Getenv("MSGF_OTEL_SAMPLE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MSGF_OTEL_SAMPLE_RATE: %w", err)
		}
		c.Observability.SampleRate = rate
	}
	return nil
}

// Validate checks cross-field constraints that hold regardless of where the
// values came from.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch paramsource.Type(c.Override.Type) {
	case paramsource.TypeNone, paramsource.TypeDir, paramsource.TypeS3, paramsource.TypeGCS,
		paramsource.TypeSQL, paramsource.TypeRedis:
	default:
		return fmt.Errorf("unsupported override type %q", c.Override.Type)
	}
	if c.Override.Type == string(paramsource.TypeDir) && c.ParamsDir == "" {
		return fmt.Errorf("params_dir is required for a dir override")
	}
	if c.Override.Table != "" && !tableName.MatchString(c.Override.Table) {
		return fmt.Errorf("invalid sql table name %q", c.Override.Table)
	}
	if c.Override.MaxRPS < 0 || c.Override.MaxBurst < 0 {
		return fmt.Errorf("override rate limit must not be negative")
	}
	if c.Observability.SampleRate < 0 || c.Observability.SampleRate > 1 {
		return fmt.Errorf("sample rate %v out of range [0,1]", c.Observability.SampleRate)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}

// SourceOptions returns the options for the override source.
func (c *Config) SourceOptions() paramsource.Options {
	o := c.Override
	return paramsource.Options{
		Type:            paramsource.Type(o.Type),
		Dir:             c.ParamsDir,
		Bucket:          o.Bucket,
		Region:          o.Region,
		Endpoint:        o.Endpoint,
		Prefix:          o.Prefix,
		AccessKeyID:     o.AccessKeyID,
		SecretAccessKey: o.SecretAccessKey,
		Driver:          o.Driver,
		DSN:             o.DSN,
		Table:           o.Table,
		RedisAddr:       o.RedisAddr,
		RedisPassword:   o.RedisPassword,
		RedisDB:         o.RedisDB,
		MaxRPS:          o.MaxRPS,
		MaxBurst:        o.MaxBurst,
	}
}

// Telemetry returns the telemetry provider configuration.
func (c *Config) Telemetry() *observability.Config {
	oc := observability.DefaultConfig()
	oc.Enabled = c.Observability.Enabled
	oc.Insecure = c.Observability.Insecure
	oc.SampleRate = c.Observability.SampleRate
	oc.CAFile = c.Observability.CAFile
	if c.Observability.Endpoint != "" {
		oc.OTLPEndpoint = c.Observability.Endpoint
	}
	if c.Observability.ServiceName != "" {
		oc.ServiceName = c.Observability.ServiceName
	}
	if c.Observability.Environment != "" {
		oc.Environment = c.Observability.Environment
	}
	return oc
}
