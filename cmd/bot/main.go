package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tem_review_bot/internal/app"
	"tem_review_bot/internal/infra/config"
	idb "tem_review_bot/internal/infra/database"
	"tem_review_bot/internal/infra/email"
	"tem_review_bot/internal/infra/llm"
	"tem_review_bot/internal/infra/logger"
	"tem_review_bot/internal/infra/scheduler"
	"tem_review_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	mainLogger := logger.Log.WithField("component", "main")
	mainLogger.Infof("Configuration loaded. Environment: %s, Group chat: %d, Operator configured: %t",
		cfg.Environment, cfg.GroupChatID, cfg.OperatorConfigured())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		mainLogger.WithError(err).Fatal("Could not ensure database schema")
	}
	mainLogger.Info("Database connection established and schema ensured")

	// Repositories
	submissionRepo := idb.NewPostgresSubmissionRepository(db)
	assignmentRepo := idb.NewPostgresAssignmentRepository(db)
	followupRepo := idb.NewPostgresFollowupRepository(db)
	rejectionRepo := idb.NewPostgresRejectionRepository(db)
	contentReqRepo := idb.NewPostgresContentRequestRepository(db)
	stateRepo := idb.NewPostgresBotStateRepository(db)

	// Telegram bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.Log.WithField("component", "telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID).WithField("chat_id", c.Chat().ID)
			}
			entry.Error("Telebot handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}

	// Outbound transports
	var mailSender email.Sender
	if cfg.SMTPAddr != "" {
		mailSender = email.NewSMTPSender(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom,
			logger.Log.WithField("component", "smtp_sender"))
	} else {
		mainLogger.Warn("SMTP_ADDR not set; author emails will be dropped")
	}
	gateway := telegram.NewGateway(
		telegram.NewTelebotAdapter(bot),
		mailSender,
		cfg.GroupChatID,
		cfg.OperatorTelegramID,
		logger.Log.WithField("component", "notify_gateway"),
	)

	// Services
	publishLoc, err := time.LoadLocation(cfg.PublishTimezone)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not load publish timezone")
	}

	ranker := llm.New(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel,
		logger.Log.WithField("component", "llm_client"))
	assignerService := app.NewAssignerService(ranker, assignmentRepo, cfg.ReviewersFile,
		logger.Log.WithField("component", "assigner_service"))
	workflowService := app.NewWorkflowService(
		submissionRepo, assignmentRepo, followupRepo, contentReqRepo,
		assignerService, gateway,
		logger.Log.WithField("component", "workflow_service"),
		app.WorkflowConfig{
			FollowupInterval:   cfg.FollowupInterval,
			ContentRequestTTL:  cfg.ContentRequestTTL,
			PublishLocation:    publishLoc,
			PublishTime:        cfg.PublishTime,
			OperatorConfigured: cfg.OperatorConfigured(),
		},
	)
	rejectionService := app.NewRejectionService(rejectionRepo, submissionRepo, workflowService, gateway,
		logger.Log.WithField("component", "rejection_service"))
	intakeService := app.NewIntakeService(submissionRepo, workflowService,
		logger.Log.WithField("component", "intake_service"))
	router := app.NewCommandRouter(submissionRepo, assignmentRepo, workflowService, rejectionService,
		cfg.OperatorTelegramID, logger.Log.WithField("component", "command_router"))
	mainLogger.Info("Services initialized")

	// Scheduler. No inbound mail source is wired here; intake runs through
	// the external poller feeding IntakeService, and the mail poll job stays
	// disabled until a source implementation is injected.
	reviewScheduler := scheduler.NewReviewScheduler(
		workflowService, intakeService, followupRepo, contentReqRepo, stateRepo,
		nil,
		logger.Log.WithField("component", "scheduler"),
		cfg.CronSpecFollowupCheck,
		cfg.CronSpecContentExpiry,
		cfg.CronSpecMailPoll,
	)
	reviewScheduler.Start()

	// Handlers
	telegram.RegisterCommandHandlers(ctx, bot, router, logger.Log.WithField("component", "telegram"))
	telegram.RegisterCallbackHandlers(ctx, bot, workflowService, rejectionService, cfg.OperatorTelegramID,
		logger.Log.WithField("component", "telegram"))
	mainLogger.Info("Telegram handlers registered")

	mainLogger.Info("Application setup complete. Bot and scheduler are starting...")
	go bot.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	cancel()
	reviewScheduler.Stop()
	bot.Stop()
	mainLogger.Info("Application shut down gracefully")
}
