package configs

import (
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/korlin/auditorium/internal/infrastructure/env"
)

type Config struct {
	HTTP        HTTPConfig        `koanf:"http"`
	Auth        AuthConfig        `koanf:"auth"`
	ICE         ICEConfig         `koanf:"ice"`
	Rooms       RoomsConfig       `koanf:"rooms"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type AuthConfig struct {
	Secret string        `koanf:"secret"`
	Issuer string        `koanf:"issuer"`
	Leeway time.Duration `koanf:"leeway"`
}

// ICEServer is one STUN/TURN descriptor handed to connecting clients.
type ICEServer struct {
	URLs       []string `koanf:"urls" json:"urls"`
	Username   string   `koanf:"username" json:"username,omitempty"`
	Credential string   `koanf:"credential" json:"credential,omitempty"`
}

type ICEConfig struct {
	Servers []ICEServer `koanf:"servers"`
}

type RoomsConfig struct {
	PeerOutboxSize int `koanf:"peer_outbox_size"`
}

type RateLimiterConfig struct {
	RequestsPerTimeFrame int           `koanf:"requestsPerTimeFrame"`
	TimeFrame            time.Duration `koanf:"timeFrame"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Environment string `koanf:"environment"`
	Endpoint    string `koanf:"endpoint"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if one was found
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	// Auth defaults
	setDefault(k, "auth.secret", "change-this-to-a-strong-secret")
	setDefault(k, "auth.leeway", 30*time.Second)

	// ICE defaults: a public STUN server so clients always get something
	setDefault(k, "ice.servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})

	// Room defaults
	setDefault(k, "rooms.peer_outbox_size", 64)

	// Rate limiter defaults
	setDefault(k, "rateLimiter.requestsPerTimeFrame", 20)
	setDefault(k, "rateLimiter.timeFrame", 5*time.Second)

	// Tracing defaults
	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.service_name", "auditorium")
	setDefault(k, "tracing.environment", "development")
	setDefault(k, "tracing.endpoint", "http://jaeger:4318")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if secret := env.GetString("JWT_SECRET", ""); secret != "" {
		k.Set("auth.secret", secret)
	}
	if issuer := env.GetString("JWT_ISSUER", ""); issuer != "" {
		k.Set("auth.issuer", issuer)
	}

	if endpoint := env.GetString("OTLP_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
		k.Set("tracing.enabled", true)
	}
}

func setDefault(k *koanf.Koanf, key string, value any) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
