package bootstrap

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"ingest_server/adapter/out/persistence"
	"ingest_server/adapter/out/portal"
	"ingest_server/adapter/out/provider"
	"ingest_server/adapter/out/provider/gmail"
	"ingest_server/adapter/out/storage"
	"ingest_server/config"
	"ingest_server/core/agent/llm"
	"ingest_server/core/service/importer"
	"ingest_server/core/service/pipeline"
	"ingest_server/core/service/roster"
	"ingest_server/infra/database"
)

type Dependencies struct {
	Config *config.Config
	DB     *pgxpool.Pool
	SQLDB  *sqlx.DB
	Redis  *redis.Client

	// Repositories
	StudentRepo      *persistence.StudentAdapter
	SchoolYearRepo   *persistence.SchoolYearAdapter
	YearlyRepo       *persistence.YearlyRecordAdapter
	SupportRepo      *persistence.SupportRecordAdapter
	LedgerRepo       *persistence.ProcessedMessageAdapter
	MailboxStateRepo *persistence.MailboxStateAdapter
	CandidateRepo    *persistence.CandidateAdapter
	JobOfferRepo     *persistence.JobOfferAdapter
	SyncLogRepo      *persistence.SyncLogAdapter
	RunLocks         *persistence.RunLockAdapter

	// Providers
	Mailbox       *gmail.Provider
	AIAdapter     *provider.AIAdapter
	PortalClient  *portal.Client
	DocumentStore *storage.S3Store

	// Services
	ImportService   *importer.Service
	PipelineService *pipeline.Service
	RosterService   *roster.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "bootstrap").Logger()

	// Database (pgxpool)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })
	zlog.Info().Msg("postgres pool connected")

	// Database (sqlx for the adapters)
	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		zlog.Warn().Err(err).Msg("redis connection failed, run locks disabled")
	} else {
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { redisClient.Close() })
		deps.RunLocks = persistence.NewRunLockAdapter(redisClient)
	}

	// Repositories
	deps.StudentRepo = persistence.NewStudentAdapter(sqlDB)
	deps.SchoolYearRepo = persistence.NewSchoolYearAdapter(sqlDB)
	deps.YearlyRepo = persistence.NewYearlyRecordAdapter(sqlDB)
	deps.SupportRepo = persistence.NewSupportRecordAdapter(sqlDB)
	deps.LedgerRepo = persistence.NewProcessedMessageAdapter(sqlDB)
	deps.MailboxStateRepo = persistence.NewMailboxStateAdapter(sqlDB)
	deps.CandidateRepo = persistence.NewCandidateAdapter(sqlDB)
	deps.JobOfferRepo = persistence.NewJobOfferAdapter(sqlDB)
	deps.SyncLogRepo = persistence.NewSyncLogAdapter(sqlDB)

	// Mailbox provider
	if cfg.GmailClientID != "" {
		mailbox, err := gmail.NewProvider(context.Background(), gmail.Credentials{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
		})
		if err != nil {
			zlog.Warn().Err(err).Msg("gmail provider init failed, pipeline disabled")
		} else {
			deps.Mailbox = mailbox
			zlog.Info().Msg("gmail provider initialized")
		}
	}

	// AI adapter
	llmClient := llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:        cfg.OpenAIAPIKey,
		ClassifyModel: cfg.ClassifyModel,
		ExtractModel:  cfg.ExtractModel,
		MaxTokens:     cfg.LLMMaxTokens,
		Temperature:   cfg.LLMTemperature,
	})
	deps.AIAdapter = provider.NewAIAdapter(llmClient)

	// Portal scraper
	deps.PortalClient = portal.NewClient(cfg.PortalBaseURL, portal.Credentials{
		Username: cfg.PortalUsername,
		Password: cfg.PortalPassword,
		Passfile: cfg.PortalPassfile,
	}, cfg.RosterMinExpected)

	// Document store
	store, err := storage.NewS3Store(storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		zlog.Warn().Err(err).Msg("document store init failed")
	} else {
		deps.DocumentStore = store
	}

	// Services
	deps.ImportService = importer.NewService(
		deps.StudentRepo, deps.SchoolYearRepo, deps.YearlyRepo, deps.SupportRepo)

	if deps.Mailbox != nil && deps.DocumentStore != nil && deps.RunLocks != nil {
		deps.PipelineService = pipeline.NewService(
			deps.Mailbox,
			deps.AIAdapter,
			deps.LedgerRepo,
			deps.MailboxStateRepo,
			deps.CandidateRepo,
			deps.JobOfferRepo,
			deps.DocumentStore,
			deps.RunLocks,
			pipeline.Config{
				SyncMarginHours: cfg.SyncMarginHours,
				MaxResults:      cfg.PipelineMaxResults,
				LockTTLSec:      cfg.PipelineLockTTLSec,
			},
		)
	}

	if deps.RunLocks != nil {
		deps.RosterService = roster.NewService(
			deps.PortalClient,
			deps.StudentRepo,
			deps.SyncLogRepo,
			deps.RunLocks,
			roster.Config{LockTTLSec: cfg.RosterLockTTLSec},
		)
	}

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return deps, cleanup, nil
}
