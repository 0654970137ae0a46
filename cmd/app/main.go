// Package main boots the croesus worker. This is the only place the
// environment is read; everything is translated into a bootstrap.Config
// before the core sees it.
package main

import (
	"fmt"
	"strconv"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"

	"github.com/CroesusLabs/croesus/internal/bootstrap"
)

// envConfig is the environment surface of the worker.
type envConfig struct {
	PostgresHost     string `env:"DB_HOST"`
	PostgresPort     string `env:"DB_PORT"`
	PostgresUser     string `env:"DB_USER"`
	PostgresPassword string `env:"DB_PASSWORD"`
	PostgresName     string `env:"DB_NAME"`
	PostgresSchema   string `env:"DB_SCHEMA"`

	MongoURI      string `env:"MONGO_URI"`
	MongoHost     string `env:"MONGO_HOST"`
	MongoPort     string `env:"MONGO_PORT"`
	MongoUser     string `env:"MONGO_USER"`
	MongoPassword string `env:"MONGO_PASSWORD"`
	MongoName     string `env:"MONGO_NAME"`

	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT"`
	RedisUser     string `env:"REDIS_USER"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       string `env:"REDIS_DB"`

	RabbitURI      string `env:"RABBITMQ_URI"`
	RabbitHost     string `env:"RABBITMQ_HOST"`
	RabbitPortHost string `env:"RABBITMQ_PORT_HOST"`
	RabbitUser     string `env:"RABBITMQ_DEFAULT_USER"`
	RabbitPass     string `env:"RABBITMQ_DEFAULT_PASS"`
	RabbitExchange string `env:"RABBITMQ_EXCHANGE"`
	RabbitKey      string `env:"RABBITMQ_KEY"`

	PollIntervalMS     string `env:"POLL_INTERVAL_MS"`
	MaxRetries         string `env:"MAX_RETRIES"`
	BaseRetryDelaySecs string `env:"BASE_RETRY_DELAY_SECONDS"`
	MaxRetryDelaySecs  string `env:"MAX_RETRY_DELAY_SECONDS"`
	OCCMaxRetries      string `env:"OCC_MAX_RETRIES"`
	OCCBaseIntervalMS  string `env:"OCC_BASE_INTERVAL_MS"`
	ProcessorName      string `env:"PROCESSOR_NAME"`
	ProcessorVersion   string `env:"PROCESSOR_VERSION"`
	StallThresholdSecs string `env:"STALL_THRESHOLD_SECONDS"`
	CommandTimeoutSecs string `env:"COMMAND_TIMEOUT_SECONDS"`
	IdempotencyTTLSecs string `env:"IDEMPOTENCY_TTL_SECONDS"`
	FanoutWorkers      string `env:"FANOUT_WORKERS"`

	OtelLibraryName      string `env:"OTEL_LIBRARY_NAME"`
	OtelServiceName      string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	OtelServiceVersion   string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv    string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
	OtelExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTelemetry      string `env:"ENABLE_TELEMETRY"`
}

// config overlays the environment on the stock knobs. Unset or unparsable
// values keep their defaults.
func (e *envConfig) config() bootstrap.Config {
	cfg := bootstrap.DefaultConfig()

	cfg.PostgresDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		e.PostgresUser, e.PostgresPassword, e.PostgresHost, e.PostgresPort, e.PostgresName)
	cfg.SchemaPrefix = e.PostgresSchema

	mongoScheme := e.MongoURI
	if mongoScheme == "" {
		mongoScheme = "mongodb"
	}

	cfg.MongoURI = fmt.Sprintf("%s://%s:%s@%s:%s", mongoScheme, e.MongoUser, e.MongoPassword, e.MongoHost, e.MongoPort)
	cfg.MongoDatabase = e.MongoName

	cfg.RedisAddr = fmt.Sprintf("%s:%s", e.RedisHost, e.RedisPort)
	cfg.RedisUser = e.RedisUser
	cfg.RedisPassword = e.RedisPassword
	cfg.RedisDB = intOrDefault(e.RedisDB, cfg.RedisDB)

	rabbitScheme := e.RabbitURI
	if rabbitScheme == "" {
		rabbitScheme = "amqp"
	}

	cfg.RabbitURI = fmt.Sprintf("%s://%s:%s@%s:%s", rabbitScheme, e.RabbitUser, e.RabbitPass, e.RabbitHost, e.RabbitPortHost)

	if e.RabbitExchange != "" {
		cfg.FanoutExchange = e.RabbitExchange
	}

	if e.RabbitKey != "" {
		cfg.FanoutKey = e.RabbitKey
	}

	cfg.FanoutWorkers = intOrDefault(e.FanoutWorkers, cfg.FanoutWorkers)

	cfg.PollInterval = millisOrDefault(e.PollIntervalMS, cfg.PollInterval)
	cfg.MaxRetries = intOrDefault(e.MaxRetries, cfg.MaxRetries)
	cfg.BaseRetryDelay = secondsOrDefault(e.BaseRetryDelaySecs, cfg.BaseRetryDelay)
	cfg.MaxRetryDelay = secondsOrDefault(e.MaxRetryDelaySecs, cfg.MaxRetryDelay)
	cfg.OCCMaxRetries = intOrDefault(e.OCCMaxRetries, cfg.OCCMaxRetries)
	cfg.OCCBaseInterval = millisOrDefault(e.OCCBaseIntervalMS, cfg.OCCBaseInterval)
	cfg.StallThreshold = secondsOrDefault(e.StallThresholdSecs, cfg.StallThreshold)
	cfg.CommandTimeout = secondsOrDefault(e.CommandTimeoutSecs, cfg.CommandTimeout)
	cfg.IdempotencyTTL = secondsOrDefault(e.IdempotencyTTLSecs, cfg.IdempotencyTTL)

	if e.ProcessorName != "" {
		cfg.ProcessorName = e.ProcessorName
	}

	if e.ProcessorVersion != "" {
		cfg.ProcessorVersion = e.ProcessorVersion
	}

	if e.OtelLibraryName != "" {
		cfg.OtelLibraryName = e.OtelLibraryName
	}

	if e.OtelServiceName != "" {
		cfg.OtelServiceName = e.OtelServiceName
	}

	if e.OtelServiceVersion != "" {
		cfg.OtelServiceVersion = e.OtelServiceVersion
	}

	if e.OtelDeploymentEnv != "" {
		cfg.OtelDeploymentEnv = e.OtelDeploymentEnv
	}

	cfg.OtelExporterEndpoint = e.OtelExporterEndpoint

	if enabled, err := strconv.ParseBool(e.EnableTelemetry); err == nil {
		cfg.EnableTelemetry = enabled
	}

	return cfg
}

func intOrDefault(value string, def int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}

	return parsed
}

func millisOrDefault(value string, def time.Duration) time.Duration {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return def
	}

	return time.Duration(parsed) * time.Millisecond
}

func secondsOrDefault(value string, def time.Duration) time.Duration {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return def
	}

	return time.Duration(parsed) * time.Second
}

func main() {
	libCommons.InitLocalEnvConfig()

	env := &envConfig{}
	if err := libCommons.SetConfigFromEnvVars(env); err != nil {
		panic(err)
	}

	bootstrap.InitServers(env.config()).Run()
}
