// Package bootstrap wires the posting core together: configuration,
// datastore connections, embedded migrations, the command and query use
// cases, the queue monitor and the journal fan-out worker pool.
package bootstrap

import (
	"context"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libMongo "github.com/LerianStudio/lib-commons/v2/commons/mongo"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	libRabbitmq "github.com/LerianStudio/lib-commons/v2/commons/rabbitmq"
	libRedis "github.com/LerianStudio/lib-commons/v2/commons/redis"
	libZap "github.com/LerianStudio/lib-commons/v2/commons/zap"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/CroesusLabs/croesus/internal/adapters/mongodb"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/account"
	commandPostgres "github.com/CroesusLabs/croesus/internal/adapters/postgres/command"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/entry"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/idempotency"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/instance"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/journal"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/lookup"
	"github.com/CroesusLabs/croesus/internal/adapters/postgres/transaction"
	"github.com/CroesusLabs/croesus/internal/adapters/rabbitmq"
	"github.com/CroesusLabs/croesus/internal/adapters/redis"
	"github.com/CroesusLabs/croesus/internal/dispatcher"
	"github.com/CroesusLabs/croesus/internal/fanout"
	"github.com/CroesusLabs/croesus/internal/scheduler"
	"github.com/CroesusLabs/croesus/internal/services/command"
	"github.com/CroesusLabs/croesus/internal/services/query"
	"github.com/CroesusLabs/croesus/pkg/constant"
)

// Version is stamped by the build; the default marks local runs.
var Version = "dev"

// Config carries every knob of the worker. The core never reads the
// environment; the application shell translates env vars into one of these
// and threads it through InitServers.
type Config struct {
	// PostgresDSN points at the authoritative store.
	PostgresDSN string

	// SchemaPrefix is the storage namespace, applied as the search_path of
	// every session and of the migration runner. Empty uses the default
	// schema.
	SchemaPrefix string

	// MongoURI and MongoDatabase locate the context document store.
	MongoURI      string
	MongoDatabase string

	// RedisAddr, RedisUser, RedisPassword and RedisDB locate the
	// idempotency fast path cache.
	RedisAddr     string
	RedisUser     string
	RedisPassword string
	RedisDB       int

	// RabbitURI points at the broker journal link messages are published to.
	RabbitURI string

	// FanoutExchange and FanoutKey address journal link publishes.
	FanoutExchange string
	FanoutKey      string

	// FanoutWorkers caps the fan-out worker pool.
	FanoutWorkers int

	// PollInterval is the monitor polling period.
	PollInterval time.Duration

	// StallThreshold is how long a queue item may sit in processing before
	// the sweep reverts it to pending.
	StallThreshold time.Duration

	// CommandTimeout bounds one command's processing, covering all its
	// optimistic concurrency attempts.
	CommandTimeout time.Duration

	// MaxRetries caps scheduler retries before a command dead-letters.
	MaxRetries int

	// BaseRetryDelay and MaxRetryDelay bound the scheduler backoff.
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration

	// OCCMaxRetries caps the in-command optimistic concurrency retries.
	OCCMaxRetries int

	// OCCBaseInterval is the unit of the wait between those retries.
	OCCBaseInterval time.Duration

	// ProcessorName prefixes the processor identities recorded on claimed
	// queue items.
	ProcessorName string

	// ProcessorVersion is stamped on queue items claimed by this process.
	ProcessorVersion string

	// IdempotencyTTL bounds the Redis idempotency reservation.
	IdempotencyTTL time.Duration

	// Otel* name the worker in telemetry; EnableTelemetry gates the
	// collector exporter.
	OtelLibraryName      string
	OtelServiceName      string
	OtelServiceVersion   string
	OtelDeploymentEnv    string
	OtelExporterEndpoint string
	EnableTelemetry      bool
}

// DefaultConfig returns the stock worker knobs. Connection endpoints carry
// no defaults and must be provided.
func DefaultConfig() Config {
	return Config{
		FanoutExchange:     "croesus.journal",
		FanoutKey:          "journal.link",
		FanoutWorkers:      10,
		PollInterval:       5 * time.Second,
		StallThreshold:     5 * time.Minute,
		CommandTimeout:     60 * time.Second,
		MaxRetries:         5,
		BaseRetryDelay:     30 * time.Second,
		MaxRetryDelay:      3600 * time.Second,
		OCCMaxRetries:      5,
		OCCBaseInterval:    200 * time.Millisecond,
		ProcessorName:      constant.DefaultProcessorName,
		ProcessorVersion:   Version,
		IdempotencyTTL:     24 * time.Hour,
		OtelLibraryName:    "github.com/CroesusLabs/croesus",
		OtelServiceName:    "croesus-worker",
		OtelServiceVersion: Version,
		OtelDeploymentEnv:  "development",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()

	if c.FanoutExchange == "" {
		c.FanoutExchange = def.FanoutExchange
	}

	if c.FanoutKey == "" {
		c.FanoutKey = def.FanoutKey
	}

	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = def.FanoutWorkers
	}

	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}

	if c.StallThreshold <= 0 {
		c.StallThreshold = def.StallThreshold
	}

	if c.CommandTimeout <= 0 {
		c.CommandTimeout = def.CommandTimeout
	}

	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}

	if c.BaseRetryDelay <= 0 {
		c.BaseRetryDelay = def.BaseRetryDelay
	}

	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = def.MaxRetryDelay
	}

	if c.OCCMaxRetries <= 0 {
		c.OCCMaxRetries = def.OCCMaxRetries
	}

	if c.OCCBaseInterval <= 0 {
		c.OCCBaseInterval = def.OCCBaseInterval
	}

	if c.ProcessorName == "" {
		c.ProcessorName = def.ProcessorName
	}

	if c.ProcessorVersion == "" {
		c.ProcessorVersion = def.ProcessorVersion
	}

	if c.IdempotencyTTL <= 0 {
		c.IdempotencyTTL = def.IdempotencyTTL
	}

	if c.OtelLibraryName == "" {
		c.OtelLibraryName = def.OtelLibraryName
	}

	if c.OtelServiceName == "" {
		c.OtelServiceName = def.OtelServiceName
	}

	if c.OtelServiceVersion == "" {
		c.OtelServiceVersion = def.OtelServiceVersion
	}

	if c.OtelDeploymentEnv == "" {
		c.OtelDeploymentEnv = def.OtelDeploymentEnv
	}

	return c
}

func (c Config) schedulerPolicy() scheduler.Policy {
	return scheduler.Policy{
		MaxRetries:     c.MaxRetries,
		BaseRetryDelay: c.BaseRetryDelay,
		MaxRetryDelay:  c.MaxRetryDelay,
	}
}

func (c Config) occOptions() command.OCCOptions {
	return command.OCCOptions{
		MaxRetries:   c.OCCMaxRetries,
		BaseInterval: c.OCCBaseInterval,
	}
}

func (c Config) dispatcherOptions() dispatcher.Options {
	return dispatcher.Options{
		PollInterval:   c.PollInterval,
		StallThreshold: c.StallThreshold,
		CommandTimeout: c.CommandTimeout,
		ProcessorName:  c.ProcessorName,
	}
}

// InitServers builds the full worker from cfg: connections, migrations,
// repositories, use cases, the queue monitor and the fan-out worker pool.
func InitServers(cfg Config) *Service {
	cfg = cfg.withDefaults()

	logger := libZap.InitializeLogger()

	telemetry := libOpentelemetry.Telemetry{
		LibraryName:               cfg.OtelLibraryName,
		ServiceName:               cfg.OtelServiceName,
		ServiceVersion:            cfg.OtelServiceVersion,
		DeploymentEnv:             cfg.OtelDeploymentEnv,
		CollectorExporterEndpoint: cfg.OtelExporterEndpoint,
		EnableTelemetry:           cfg.EnableTelemetry,
	}

	ctx := libCommons.ContextWithLogger(context.Background(), logger)

	postgresConnection, err := postgres.NewConnection(ctx, cfg.PostgresDSN, cfg.SchemaPrefix)
	if err != nil {
		logger.Fatalf("Failed to connect postgres: %v", err)
	}

	if err := postgresConnection.RunMigrations(ctx); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	riverDriver := riverpgxv5.New(postgresConnection.Pool)

	riverMigrator, err := rivermigrate.New(riverDriver, nil)
	if err != nil {
		logger.Fatalf("Failed to prepare river migrator: %v", err)
	}

	if _, err := riverMigrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		logger.Fatalf("Failed to run river migrations: %v", err)
	}

	mongoConnection := &libMongo.MongoConnection{
		ConnectionStringSource: cfg.MongoURI,
		Database:               cfg.MongoDatabase,
		Logger:                 logger,
	}

	redisConnection := &libRedis.RedisConnection{
		Addr:     cfg.RedisAddr,
		User:     cfg.RedisUser,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Logger:   logger,
	}

	rabbitMQConnection := &libRabbitmq.RabbitMQConnection{
		ConnectionStringSource: cfg.RabbitURI,
		Logger:                 logger,
	}

	producerRabbitMQRepository := rabbitmq.NewProducerRabbitMQ(rabbitMQConnection)

	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, fanout.NewJournalLinkWorker(producerRabbitMQRepository, cfg.FanoutExchange, cfg.FanoutKey))

	riverClient, err := river.NewClient(riverDriver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.FanoutWorkers},
		},
		Workers: riverWorkers,
	})
	if err != nil {
		logger.Fatalf("Failed to build river client: %v", err)
	}

	instancePostgreSQLRepository := instance.NewInstancePostgreSQLRepository(postgresConnection)
	accountPostgreSQLRepository := account.NewAccountPostgreSQLRepository(postgresConnection)
	transactionPostgreSQLRepository := transaction.NewTransactionPostgreSQLRepository(postgresConnection)
	entryPostgreSQLRepository := entry.NewEntryPostgreSQLRepository(postgresConnection)
	commandPostgreSQLRepository := commandPostgres.NewCommandPostgreSQLRepository(postgresConnection)
	journalPostgreSQLRepository := journal.NewJournalPostgreSQLRepository(postgresConnection)
	lookupPostgreSQLRepository := lookup.NewLookupPostgreSQLRepository(postgresConnection)
	idempotencyPostgreSQLRepository := idempotency.NewIdempotencyPostgreSQLRepository(postgresConnection)

	metadataMongoDBRepository := mongodb.NewMetadataMongoDBRepository(mongoConnection)
	redisConsumerRepository := redis.NewConsumerRedis(redisConnection)

	commandUseCase := &command.UseCase{
		InstanceRepo:     instancePostgreSQLRepository,
		AccountRepo:      accountPostgreSQLRepository,
		TransactionRepo:  transactionPostgreSQLRepository,
		EntryRepo:        entryPostgreSQLRepository,
		CommandRepo:      commandPostgreSQLRepository,
		JournalRepo:      journalPostgreSQLRepository,
		LookupRepo:       lookupPostgreSQLRepository,
		IdempotencyRepo:  idempotencyPostgreSQLRepository,
		MetadataRepo:     metadataMongoDBRepository,
		RedisRepo:        redisConsumerRepository,
		Fanout:           fanout.NewRiverEnqueuer(riverClient),
		Tx:               postgres.NewTxManager(postgresConnection),
		Policy:           cfg.schedulerPolicy(),
		OCC:              cfg.occOptions(),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		ProcessorVersion: cfg.ProcessorVersion,
	}

	queryUseCase := &query.UseCase{
		InstanceRepo:    instancePostgreSQLRepository,
		AccountRepo:     accountPostgreSQLRepository,
		TransactionRepo: transactionPostgreSQLRepository,
		EntryRepo:       entryPostgreSQLRepository,
		CommandRepo:     commandPostgreSQLRepository,
		JournalRepo:     journalPostgreSQLRepository,
		MetadataRepo:    metadataMongoDBRepository,
	}

	queueMonitor := &QueueMonitor{
		monitor:   dispatcher.NewMonitor(commandPostgreSQLRepository, commandUseCase, cfg.dispatcherOptions()),
		Logger:    logger,
		Telemetry: telemetry,
	}

	fanoutWorker := &FanoutWorker{
		client:      riverClient,
		producer:    producerRabbitMQRepository,
		libraryName: cfg.OtelLibraryName,
		Logger:      logger,
	}

	return &Service{
		QueueMonitor: queueMonitor,
		FanoutWorker: fanoutWorker,
		Command:      commandUseCase,
		Query:        queryUseCase,
		Logger:       logger,
	}
}
