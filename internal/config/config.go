package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel   int        `env:"LOG_LEVEL" envDefault:"0"`
	LogFormat  string     `env:"LOG_FORMAT" envDefault:"text"`
	HTTP       HTTP       `envPrefix:"HTTP_"`
	JWT        JWT        `envPrefix:"JWT_"`
	Demo       Demo       `envPrefix:"DEMO_"`
	Gemini     Gemini     `envPrefix:"GEMINI_"`
	AutoReply  AutoReply  `envPrefix:"AUTOREPLY_"`
	Storage    Storage    `envPrefix:"MINIO_"`
	Attachment Attachment `envPrefix:"ATTACHMENT_"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Port               string        `env:"PORT" envDefault:"8080"`
	EnableHTTPS        bool          `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string        `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string        `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// JWT contains session token parameters.
type JWT struct {
	Secret string        `env:"SECRET" envDefault:"devsecret"`
	TTL    time.Duration `env:"TTL" envDefault:"24h"`
}

// Demo contains the demo account settings.
type Demo struct {
	Password         string `env:"PASSWORD" envDefault:"user123"`
	AutoReplyContact string `env:"AUTOREPLY_CONTACT_ID" envDefault:"user-2"`
}

// Gemini contains generative language API parameters. An empty APIKey
// selects canned replies.
type Gemini struct {
	APIKey   string        `env:"API_KEY"`
	Model    string        `env:"MODEL" envDefault:"gemini-2.5-flash"`
	Endpoint string        `env:"ENDPOINT" envDefault:"https://generativelanguage.googleapis.com"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"20s"`
}

// AutoReply contains the reply worker pool parameters.
type AutoReply struct {
	Workers   int `env:"WORKERS" envDefault:"2"`
	QueueSize int `env:"QUEUE_SIZE" envDefault:"64"`
}

// Storage contains object storage parameters.
type Storage struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"chatdemo-access-key"`
	SecretKey string `env:"SECRET_KEY" envDefault:"chatdemo-secret-key"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"chatdemo-attachments"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Attachment contains upload limits.
type Attachment struct {
	MaxBytes int64 `env:"MAX_BYTES" envDefault:"10485760"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
