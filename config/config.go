package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   Server   `mapstructure:"server"`
	Log      Log      `mapstructure:"log"`
	Gemini   Gemini   `mapstructure:"gemini"`
	Upload   Upload   `mapstructure:"upload"`
	Postgres Postgres `mapstructure:"postgres"`
	RabbitMQ RabbitMQ `mapstructure:"rabbitmq"`
	Minio    Minio    `mapstructure:"minio"`
	Email    Email    `mapstructure:"email"`
}

type Server struct {
	Port string `mapstructure:"port"`
	//when false, INTERNAL_ERROR responses drop the underlying error text
	ExposeInternalErrors bool     `mapstructure:"expose_internal_errors"`
	CORSAllowOrigins     []string `mapstructure:"cors_allow_origins"`
	//deadline for archive, ledger, event and email after the response is sent
	PostProcessTimeout time.Duration `mapstructure:"post_process_timeout"`
}

type Log struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Gemini struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Upload struct {
	MaxFileSizeMB int  `mapstructure:"max_file_size_mb"`
	MaxFiles      int  `mapstructure:"max_files"`
	EnforceLimits bool `mapstructure:"enforce_limits"`
}

func (u Upload) MaxFileBytes() int64 {
	return int64(u.MaxFileSizeMB) << 20
}

type Postgres struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	Database   string `mapstructure:"database"`
	AutoCreate bool   `mapstructure:"autocreate"`
}

func (p Postgres) Enabled() bool { return p.Host != "" }

func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.Username, p.Password, p.Database)
}

type RabbitMQ struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Queue    string `mapstructure:"queue"`
}

func (r RabbitMQ) Enabled() bool { return r.Host != "" }

func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

type Minio struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

func (m Minio) Enabled() bool { return m.Endpoint != "" }

type Email struct {
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

func (e Email) Enabled() bool { return e.APIKey != "" && e.From != "" }

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.expose_internal_errors", true)
	v.SetDefault("server.cors_allow_origins", []string{"*"})
	v.SetDefault("server.post_process_timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-3-pro-image-preview")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.timeout", time.Duration(0))

	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.max_files", 5)
	v.SetDefault("upload.enforce_limits", true)

	v.SetDefault("postgres.host", "")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.username", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "")
	v.SetDefault("postgres.autocreate", false)

	v.SetDefault("rabbitmq.host", "")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.username", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.queue", "image_generated")

	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "generated-images")
	v.SetDefault("minio.secure", true)

	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "ImageGenService")
}

// InitConfig reads filename when it exists, then applies IMAGEGEN_* env
// overrides. GEMINI_API_IMAGE_KEY is accepted for the model key.
func InitConfig(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("IMAGEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", "IMAGEGEN_GEMINI_API_KEY", "GEMINI_API_IMAGE_KEY"); err != nil {
		return nil, err
	}

	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			v.SetConfigFile(filename)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
