package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env            string        `yaml:"env" env-default:"local"`
	DSN            string        `yaml:"dsn" env:"DSN" env-required:"true"`
	HTTP           HTTPConfig    `yaml:"http"`
	Redis          RedisConf     `yaml:"redis"`
	JWT            JWTConfig     `yaml:"jwt"`
	AllowedOrigins []string      `yaml:"allowed_origins" env-default:"http://localhost:5173,http://localhost:5174"`
	ReaperInterval time.Duration `yaml:"reaper_interval" env-default:"1h"`
	CacheTTL       time.Duration `yaml:"cache_ttl" env-default:"5m"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"8080"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type JWTConfig struct {
	// Secret must carry at least 256 bits; the codec refuses to start on
	// anything shorter.
	Secret              string `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTLSec   int    `yaml:"access_token_ttl" env-default:"900"`
	RefreshTokenTTLDays int    `yaml:"refresh_token_ttl" env-default:"7"`
}

func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLSec) * time.Second
}

func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
