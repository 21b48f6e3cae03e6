package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		// TrustedProxies lists CIDRs whose X-Forwarded-For header is honoured when resolving the source address.
		TrustedProxies []string `json:"trustedProxies" yaml:"trustedProxies"`
		Timeouts       struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Storage StorageConfig `json:"storage" yaml:"storage"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Redis holds the lockout state. An empty URL keeps lockout state in process memory.
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	PasswordStrength *PasswordStrengthConfig `json:"passwordStrength" yaml:"passwordStrength"`

	Lockout *LockoutConfig `json:"lockout" yaml:"lockout"`

	Reset *ResetConfig `json:"reset" yaml:"reset"`

	Encryption struct {
		// AddressKey is a base64 encoded 32 byte key used to seal profile addresses.
		AddressKey string `json:"addressKey" yaml:"addressKey"`
	} `json:"encryption" yaml:"encryption"`

	// SMTP configuration for outbound mail. An empty host logs messages instead of sending them.
	SMTP *SMTPConfig `json:"smtp" yaml:"smtp"`

	// PubSub configuration for account event publishing
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	Metrics struct {
		Enabled bool   `json:"enabled" yaml:"enabled"`
		Path    string `json:"path" yaml:"path"`
	} `json:"metrics" yaml:"metrics"`
}

// StorageConfig selects the persistence driver.
type StorageConfig struct {
	Driver      string `json:"driver" yaml:"driver"`
	AutoMigrate bool   `json:"autoMigrate" yaml:"autoMigrate"`
}

type RedisConfig struct {
	URL       string `json:"url" yaml:"url"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost     int           `json:"bcryptCost" yaml:"bcryptCost"`
	AccessTokenTTL time.Duration `json:"accessTokenTTL" yaml:"accessTokenTTL"`
}

// PasswordStrengthConfig defines password strength requirements
type PasswordStrengthConfig struct {
	MinLength        int  `json:"minLength" yaml:"minLength"`
	RequireUppercase bool `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase" yaml:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers" yaml:"requireNumbers"`
	RequireSpecial   bool `json:"requireSpecial" yaml:"requireSpecial"`
	MaxLength        int  `json:"maxLength" yaml:"maxLength"`
}

// LockoutConfig defines the failed login policy.
type LockoutConfig struct {
	// Threshold is the number of failures from one source address that triggers a lockout.
	Threshold int `json:"threshold" yaml:"threshold"`
	// Duration is how long a lockout lasts.
	Duration time.Duration `json:"duration" yaml:"duration"`
	// FailureWindow bounds how far back failures are counted.
	FailureWindow time.Duration `json:"failureWindow" yaml:"failureWindow"`
}

// ResetConfig defines the password reset policy.
type ResetConfig struct {
	MaxRequests int           `json:"maxRequests" yaml:"maxRequests"`
	TokenTTL    time.Duration `json:"tokenTTL" yaml:"tokenTTL"`
	LinkBaseURL string        `json:"linkBaseURL" yaml:"linkBaseURL"`
	// ResetCounterOnCompletion clears the request counter after a successful reset.
	ResetCounterOnCompletion bool `json:"resetCounterOnCompletion" yaml:"resetCounterOnCompletion"`
}

type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
	FromName string `json:"fromName" yaml:"fromName"`
	UseTLS   bool   `json:"useTLS" yaml:"useTLS"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	ProjectID string `json:"projectId" yaml:"projectId"`

	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}

	configFile, found := findConfigFile(searchPaths, currEnv+".yaml")
	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// A .env next to the config file is optional; real environment variables win.
	_ = godotenv.Load(filepath.Join(filepath.Dir(configFile), ".env"))

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// LOCKOUT_FAILUREWINDOW -> lockout.failureWindow
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if cfg.Postgres != nil {
		// POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, ...
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageDriverPostgres
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		cfg.Auth.AccessTokenTTL = 15 * time.Minute
	}

	cfg.Lockout = cfg.Lockout.withDefaults()
	cfg.Reset = cfg.Reset.withDefaults()
}

func (l *LockoutConfig) withDefaults() *LockoutConfig {
	out := LockoutConfig{}
	if l != nil {
		out = *l
	}
	if out.Threshold <= 0 {
		out.Threshold = 5
	}
	if out.Duration <= 0 {
		out.Duration = 5 * time.Minute
	}
	if out.FailureWindow <= 0 {
		out.FailureWindow = time.Hour
	}

	return &out
}

func (r *ResetConfig) withDefaults() *ResetConfig {
	out := ResetConfig{}
	if r != nil {
		out = *r
	}
	if out.MaxRequests <= 0 {
		out.MaxRequests = 5
	}
	if out.TokenTTL <= 0 {
		out.TokenTTL = 30 * time.Minute
	}
	out.LinkBaseURL = strings.TrimRight(out.LinkBaseURL, "/")

	return &out
}

func findConfigFile(searchPaths []string, name string) (string, bool) {
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}

	return "", false
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv reads POSTGRES_REPLICAS_{index}_{HOST|PORT|USERNAME|PASSWORD}.
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
