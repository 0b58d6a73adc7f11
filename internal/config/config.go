package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the recall binaries.
type Config struct {
	// ServerAddress is the gRPC address of recall-server.
	ServerAddress string `yaml:"server_addr"`
	// MetricsAddress is where recall-server exposes /metrics and /healthz. Empty disables it.
	MetricsAddress string `yaml:"metrics_addr,omitempty"`
	// Timeout bounds every backend call and RPC.
	Timeout time.Duration `yaml:"timeout"`
	// AnswerTimeout bounds the wait for the user's answer. Zero waits forever.
	AnswerTimeout time.Duration `yaml:"answer_timeout,omitempty"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
	// Inference selects the vision/text model backend.
	Inference Inference `yaml:"inference"`
	// Registry selects where recall records are read from.
	Registry Registry `yaml:"registry"`
	// Retry configures retries of idempotent reads.
	Retry Retry `yaml:"retry"`
	// Surface configures the fallback plane used to place labels.
	Surface Surface `yaml:"surface"`
	// Tracing configures OpenTelemetry span export.
	Tracing Tracing `yaml:"tracing,omitempty"`
	// Secrets are filled from the environment and never persisted.
	Secrets Secrets `yaml:"-"`
}

// Inference configures the model backend.
type Inference struct {
	// Provider is one of gemini, openai, mock.
	Provider string `yaml:"provider"`
	// Model is the provider specific model name.
	Model string `yaml:"model,omitempty"`
	// APIVersion is passed to the Gemini API.
	APIVersion string `yaml:"api_version,omitempty"`
	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// MockObjectName is what the mock backend "sees" in every frame.
	MockObjectName string `yaml:"mock_object_name,omitempty"`
}

// Registry configures the recall record source.
type Registry struct {
	// Kind is one of file, firebase, firestore, sqlite.
	Kind string `yaml:"kind"`
	// Path is the snapshot file for file and sqlite kinds.
	Path string `yaml:"path,omitempty"`
	// URL is the Realtime Database root for the firebase kind.
	URL string `yaml:"url,omitempty"`
	// Collection is the record path (firebase) or collection (firestore).
	Collection string `yaml:"collection,omitempty"`
	// ProjectID is the Google Cloud project for the firestore kind.
	ProjectID string `yaml:"project_id,omitempty"`
}

// Retry configures bounded exponential retries.
type Retry struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint64 `yaml:"max_retries"`
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration `yaml:"initial_interval"`
}

// Surface is the fallback plane in front of the camera.
type Surface struct {
	// Distance from the camera in meters.
	Distance float32 `yaml:"distance"`
	// Width of the visible plane in meters.
	Width float32 `yaml:"width"`
	// Height of the visible plane in meters.
	Height float32 `yaml:"height"`
}

// Tracing configures the OTLP trace exporter. Tracing is off without an endpoint.
// Both fields can be overridden from the environment.
type Tracing struct {
	// Endpoint is the OTLP/HTTP collector URL, e.g. http://localhost:4318.
	Endpoint string `yaml:"endpoint,omitempty" env:"RECALL_OTEL_ENDPOINT"`
	// Disabled turns tracing off even when an endpoint is set.
	Disabled bool `yaml:"disabled,omitempty" env:"RECALL_OTEL_DISABLED"`
}

// Secrets are credentials read from the environment.
type Secrets struct {
	// APIKey authenticates against the model provider.
	APIKey string `env:"RECALL_API_KEY"`
	// RegistryToken authenticates Realtime Database reads.
	RegistryToken string `env:"RECALL_REGISTRY_TOKEN"`
}

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// Registry kinds.
const (
	RegistryFile      = "file"
	RegistryFirebase  = "firebase"
	RegistryFirestore = "firestore"
	RegistrySQLite    = "sqlite"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "recall-lens-settings.yaml"

	// DefaultTimeout is the default duration for backend calls.
	DefaultTimeout = 30 * time.Second

	// DefaultGeminiModel is the model used when none is configured.
	DefaultGeminiModel = "gemini-1.5-pro-latest"

	// DefaultGeminiAPIVersion is the Gemini API version used when none is configured.
	DefaultGeminiAPIVersion = "v1beta"

	// DefaultOpenAIModel is the OpenAI model used when none is configured.
	DefaultOpenAIModel = "gpt-4o-mini"

	// DefaultMockObjectName is what the mock backend identifies when nothing is configured.
	DefaultMockObjectName = "Acme - Sample Product"

	// DefaultRecordPath is the Realtime Database path of the recall records.
	DefaultRecordPath = "2024/recalls"

	// DefaultCollection is the Firestore collection of the recall records.
	DefaultCollection = "recalls"

	// DefaultMaxRetries is the number of retries for idempotent reads.
	DefaultMaxRetries = 2

	// DefaultRetryInterval is the first backoff delay.
	DefaultRetryInterval = 250 * time.Millisecond

	// DefaultSurfaceDistance is the fallback plane distance in meters.
	DefaultSurfaceDistance = 0.5

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownProvider is returned for an unsupported inference provider.
	errUnknownProvider = errors.New("unknown inference provider")
	// errUnknownRegistry is returned for an unsupported registry kind.
	errUnknownRegistry = errors.New("unknown registry kind")
	// errRegistryLocation is returned when the registry kind lacks its location.
	errRegistryLocation = errors.New("registry location must be provided")
	// errNegativeTimeout is returned for a negative answer timeout.
	errNegativeTimeout = errors.New("answer timeout must not be negative")
)

// Load reads configuration from the provided path, applies environment
// secrets and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := env.Parse(&cfg.Secrets); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := env.Parse(&cfg.Tracing); err != nil {
		return nil, fmt.Errorf("parse tracing env: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path. Secrets are not written.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks required fields and fills defaults.
//
//nolint:cyclop // Flat list of independent checks.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.AnswerTimeout < 0 {
		return errNegativeTimeout
	}

	if err := validateInference(&settings.Inference); err != nil {
		return err
	}

	if err := validateRegistry(&settings.Registry); err != nil {
		return err
	}

	if settings.Retry.MaxRetries == 0 && settings.Retry.InitialInterval == 0 {
		settings.Retry.MaxRetries = DefaultMaxRetries
	}

	if settings.Retry.InitialInterval <= 0 {
		settings.Retry.InitialInterval = DefaultRetryInterval
	}

	if settings.Tracing.Endpoint != "" {
		if _, err := url.ParseRequestURI(settings.Tracing.Endpoint); err != nil {
			return fmt.Errorf("invalid tracing endpoint: %w", err)
		}
	}

	if settings.Surface.Distance <= 0 {
		settings.Surface.Distance = DefaultSurfaceDistance
	}

	if settings.Surface.Width <= 0 {
		settings.Surface.Width = settings.Surface.Distance
	}

	if settings.Surface.Height <= 0 {
		settings.Surface.Height = settings.Surface.Distance
	}

	return nil
}

// validateInference checks the provider and fills model defaults.
func validateInference(inference *Inference) error {
	if inference.Provider == "" {
		inference.Provider = ProviderGemini
	}

	switch inference.Provider {
	case ProviderGemini:
		if inference.Model == "" {
			inference.Model = DefaultGeminiModel
		}

		if inference.APIVersion == "" {
			inference.APIVersion = DefaultGeminiAPIVersion
		}
	case ProviderOpenAI:
		if inference.Model == "" {
			inference.Model = DefaultOpenAIModel
		}

		if inference.BaseURL != "" {
			if _, err := url.ParseRequestURI(inference.BaseURL); err != nil {
				return fmt.Errorf("invalid inference base URL: %w", err)
			}
		}
	case ProviderMock:
		if inference.MockObjectName == "" {
			inference.MockObjectName = DefaultMockObjectName
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownProvider, inference.Provider)
	}

	return nil
}

// validateRegistry checks the registry kind and its location.
func validateRegistry(registry *Registry) error {
	if registry.Kind == "" {
		registry.Kind = RegistryFile
	}

	switch registry.Kind {
	case RegistryFile, RegistrySQLite:
		if registry.Path == "" {
			return fmt.Errorf("%w: path for %s", errRegistryLocation, registry.Kind)
		}
	case RegistryFirebase:
		if registry.URL == "" {
			return fmt.Errorf("%w: url for %s", errRegistryLocation, registry.Kind)
		}

		if _, err := url.ParseRequestURI(registry.URL); err != nil {
			return fmt.Errorf("invalid registry URL: %w", err)
		}

		if registry.Collection == "" {
			registry.Collection = DefaultRecordPath
		}
	case RegistryFirestore:
		if registry.ProjectID == "" {
			return fmt.Errorf("%w: project_id for %s", errRegistryLocation, registry.Kind)
		}

		if registry.Collection == "" {
			registry.Collection = DefaultCollection
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownRegistry, registry.Kind)
	}

	return nil
}
