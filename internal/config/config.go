package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env            string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer     `yaml:"http_server"`
	DB             DB       `yaml:"db"`
	ConditionsPath string   `yaml:"conditions_path" env:"CONDITIONS_PATH" env-default:"./config/conditions.yaml"`
	ErrorLogPath   string   `yaml:"error_log_path" env-default:"errors.log"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Users          []User   `yaml:"users"`

	// ParallelBuilders runs condition builders concurrently; output order is unchanged.
	ParallelBuilders bool `yaml:"parallel_builders" env-default:"false"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type DB struct {
	User      string `yaml:"user" env:"DB_USER" env-required:"true"`
	Password  string `yaml:"password" env:"DB_PASSWORD"`
	Host      string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port      int    `yaml:"port" env:"DB_PORT" env-default:"3306"`
	Name      string `yaml:"name" env:"DB_NAME" env-required:"true"`
	ParseTime bool   `yaml:"parse_time" env-default:"true"`
}

// User is a basic-auth account; ID identifies the performing user in audit events.
type User struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
	ID       string `yaml:"id"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}
