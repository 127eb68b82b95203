package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"clan_raids_bot/internal/app"
	"clan_raids_bot/internal/domain/member"
	"clan_raids_bot/internal/infra/config"
	idb "clan_raids_bot/internal/infra/database"
	"clan_raids_bot/internal/infra/logger"
	"clan_raids_bot/internal/infra/metrics"
	"clan_raids_bot/internal/infra/scheduler"
	"clan_raids_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	testRaid := flag.Bool("testraid", false, "fire the raid notification on every minute, ignoring the cycle clock")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Could not load application configuration: %v", err)
	}
	if *testRaid {
		cfg.Raids.Force = true
	}

	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"admin_id":       cfg.AdminTelegramID,
		"raids_chat":     cfg.Raids.ChatID,
		"public_chat":    cfg.Raids.PublicChatID,
		"force_raid":     cfg.Raids.Force,
		"scheduler_tick": cfg.SchedulerTick,
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	if err := idb.RunMigrations(db); err != nil {
		mainLogger.Fatalf("Could not apply database migrations: %v", err)
	}
	mainLogger.Info("Database connection established and schema is up to date.")

	toggleRepo := idb.NewPostgresToggleRepository(db)
	roleRepo := idb.NewPostgresRoleRepository(db)
	teamRepo := idb.NewPostgresTeamRepository(db)

	metrics.Init()
	httpSrv := metrics.NewServer(cfg.HTTPAddr)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			mainLogger.WithError(err).Error("HTTP server stopped")
		}
	}()

	// Initialize Telegram Bot
	// Synchronous keeps updates reaching the feed in long-poll order.
	pref := telebot.Settings{
		Token:       cfg.TelegramToken,
		Poller:      &telebot.LongPoller{Timeout: 10 * time.Second},
		Synchronous: true,
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("Could not create Telegram bot: %v", err)
	}

	feed := telegram.NewFeed(telegram.DefaultFeedBuffer, logger.Component("feed"), cfg.Raids.PublicChatID)
	chatClient := telegram.NewTelebotAdapter(bot, feed, logger.Component("telegram"))

	toggleStore := app.NewToggleStore(toggleRepo, logger.Component("toggles"))
	raidService := app.NewRaidService(
		chatClient,
		toggleStore,
		roleRepo,
		teamRepo,
		app.RaidSettings{
			RaidsChatID:     cfg.Raids.ChatID,
			PublicChatID:    cfg.Raids.PublicChatID,
			Role:            member.Role(cfg.Raids.Role),
			Capacity:        cfg.Raids.Capacity,
			SessionDuration: cfg.Raids.SessionDuration,
			MessageTTL:      cfg.Raids.MessageTTL,
			PollWait:        cfg.Raids.PollWait,
			RefreshInterval: cfg.Raids.RefreshInterval,
			ClanName:        cfg.ClanName,
			RaidsChatTitle:  cfg.Raids.ChatTitle,
			RaidsChatLink:   cfg.Raids.ChatLink,
			PublicChatTitle: cfg.Raids.PublicChatTitle,
			PublicChatLink:  cfg.Raids.PublicChatLink,
		},
		bot.Me.ID,
		time.Now,
		logger.Component("raids"),
	)
	applicationService := app.NewApplicationService(roleRepo, cfg.AdminTelegramID)
	adminService := app.NewAdminService(toggleStore, roleRepo, teamRepo, cfg.AdminTelegramID, time.Now)

	// Register Handlers
	handlersLogger := logger.Component("handlers")
	telegram.RegisterBotCommands(ctx, bot, cfg, raidService, applicationService, handlersLogger)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, chatClient, handlersLogger)
	telegram.RegisterRaidHandlers(bot, feed, handlersLogger)
	mainLogger.Info("Command handlers registered.")

	maintenance := scheduler.NewMaintenanceScheduler(
		teamRepo,
		logger.Component("maintenance"),
		cfg.CronSpecTeamSweep,
		cfg.TeamStaleAfter,
		cfg.Raids.Location,
	)
	if err := maintenance.Start(); err != nil {
		mainLogger.Fatalf("Could not start maintenance scheduler: %v", err)
	}

	raidLoop := scheduler.NewRaidLoop(cfg.Raids.Cycle(), raidService, cfg.SchedulerTick, time.Now, logger.Component("raid_loop"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		raidLoop.Run(ctx)
	}()

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()
	mainLogger.WithField("bot", bot.Me.Username).Info("Application setup complete. Bot and schedulers are running.")

	<-ctx.Done()
	mainLogger.Info("Shutting down application...")

	bot.Stop()
	wg.Wait() // An open roster session ends as cancelled before the database is closed
	maintenance.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server shutdown failed")
	}
	mainLogger.Info("Application shut down gracefully.")
}
