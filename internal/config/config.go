package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/local.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer `yaml:"http_server"`
	DB         DB       `yaml:"db"`
	Redis      Redis    `yaml:"redis"`
	Auth       Auth     `yaml:"auth"`
	Target     Target   `yaml:"target"`
	Log        Log      `yaml:"log"`
	CORS       []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
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

// Redis пустой addr отключает кэш (используется cache.Nop).
type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env-default:"0"`
	Prefix   string        `yaml:"prefix" env-default:"mne"`
	TTL      time.Duration `yaml:"ttl" env-default:"10m"`
}

type Auth struct {
	JWTSecret     string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL      time.Duration `yaml:"token_ttl" env-default:"12h"`
	AdminLogin    string        `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPassHash string        `yaml:"admin_pass_hash" env:"ADMIN_PASS_HASH"`
}

type Target struct {
	// StrictMargin на сколько пунктов пользовательская цель может быть амбициознее расчётной
	StrictMargin float64 `yaml:"strict_margin" env-default:"10"`
}

type Log struct {
	ErrorFile string `yaml:"error_file" env-default:"errors.log"`
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
