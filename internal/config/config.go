// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Payment                 `yaml:"payment"`
	Guard                   `yaml:"guard"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url"`
	RabbitMQMaxRetries int           `yaml:"rabbitmq_max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"rabbitmq_retry_delay" env-default:"3s"`
}

// SMTP структура для настройки почтового транспорта
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port"`
	SMTPUser string `yaml:"smtp_user"`
	SMTPPass string `yaml:"smtp_pass"`
}

// Payment структура для настройки платёжного провайдера. Snap API
// (создание транзакций) и core API (статусы) находятся на разных хостах.
type Payment struct {
	ServerKey      string `yaml:"server_key"`
	PaymentSnapURL string `yaml:"payment_snap_url"`
	PaymentAPIURL  string `yaml:"payment_api_url"`
}

// Guard настраивает политику доступа по подписке: окна льготного периода
// и предупреждений, TTL кеша авторитетной подписки и список маршрутов,
// освобождённых от проверки. Список маршрутов — внешняя точка настройки,
// новые self-service endpoint'ы добавляются здесь без изменения кода.
type Guard struct {
	GraceDays    int           `yaml:"grace_days" env-default:"7"`
	WarnDays     int           `yaml:"warn_days" env-default:"3"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"5m"`
	ExemptRoutes []ExemptRoute `yaml:"exempt_routes"`
}

// ExemptRoute описывает один освобождённый маршрут. Пустой метод означает
// любой метод. Паттерн сравнивается по сегментам пути, завершающий "*"
// означает любой суффикс.
type ExemptRoute struct {
	Method  string `yaml:"method"`
	Pattern string `yaml:"pattern"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"Guard:\n"+
			"  GraceDays: %d\n"+
			"  WarnDays: %d\n"+
			"  CacheTTL: %s\n"+
			"  ExemptRoutes: %d\n",
		c.Env,
		c.StorageConnectionString,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RabbitMQURL,
		c.GraceDays,
		c.WarnDays,
		c.CacheTTL,
		len(c.ExemptRoutes),
	)
}
