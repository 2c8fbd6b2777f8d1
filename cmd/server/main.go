package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/auctionbot/internal/config"
	"github.com/GoPolymarket/auctionbot/internal/handler"
	"github.com/GoPolymarket/auctionbot/internal/market"
	"github.com/GoPolymarket/auctionbot/internal/model"
	"github.com/GoPolymarket/auctionbot/internal/pkg/logger"
	"github.com/GoPolymarket/auctionbot/internal/repository"
	"github.com/GoPolymarket/auctionbot/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

func main() {
	// 0. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()

	// 1. Initialize Persistence
	// Postgres > Memory
	var db *sqlx.DB
	if cfg.Database.DSN != "" {
		db, err = repository.NewDB(cfg)
		if err == nil {
			logger.Info("✅ Connected to PostgreSQL")
		} else {
			logger.Error("⚠️ Failed to connect to DB, falling back to memory", "error", err)
			db = nil
		}
	}

	// Counters (Redis > Memory)
	var redisClient *repository.RedisClient
	var counters service.ActivityCounters = service.NewMemoryActivityCounters()
	if cfg.Redis.Addr != "" {
		redisClient, err = repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			counters = redisClient
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back to memory", "error", err)
			redisClient = nil
		}
	}

	// 2. Catalog
	entries, disabled := loadCatalog(ctx, cfg, db)
	catalog := market.NewMemoryCatalog(entries)

	index := service.NewItemIndex()
	indexed := index.Build(catalog.All(), service.NewItemFilter(cfg.Filter, cfg.Bot.UseBuyPriceForSeller, disabled))
	logger.Info("Item index built", "catalog", catalog.Len(), "admitted", index.Total())

	// 3. Bot context and marketplace
	identity := model.Participant{Account: cfg.Bot.Account, Character: cfg.Bot.Character}
	bot := service.NewBotContext(identity, cfg.Bot.AllowTwoSideInteraction)

	var participants service.ParticipantProvider
	var settingsRepo service.VenueSettingsRepo = service.NewVenueSettingsStore()
	if db != nil {
		participants = repository.NewPostgresParticipantRepo(db)
		settingsRepo = repository.NewPostgresVenueSettingsRepo(db)
	}
	if ok, err := service.ValidateParticipant(ctx, participants, identity); err != nil || !ok {
		logger.Error("⚠️ Bot identity is not a valid character, bot disabled", "account", identity.Account, "character", identity.Character, "error", err)
		bot.Disable("invalid identity")
	}

	m := market.NewMarketplace(market.Options{
		BotCharacter: identity.Character,
		Observer:     service.NewListingHooks(bot, catalog),
	})

	var store service.ListingStore = market.NewMemoryListingStore(m)
	if db != nil {
		listingRepo := repository.NewPostgresListingRepo(db)
		store = listingRepo
		stored, err := listingRepo.LoadAll(ctx)
		if err != nil {
			logger.Error("⚠️ Failed to restore listings", "error", err)
		}
		for i := range stored {
			m.Restore(&stored[i].Item, &stored[i].Listing)
		}
		logger.Info("Listings restored", "count", len(stored))
	}

	if err := bot.LoadValues(ctx, settingsRepo, m, catalog); err != nil {
		log.Fatalf("Failed to load venue settings: %v", err)
	}

	// 4. Activity journal
	var activityRepo service.ActivityRepo
	var pgActivity *repository.PostgresActivityRepo
	switch {
	case db != nil:
		pgActivity = repository.NewPostgresActivityRepo(db)
		activityRepo = pgActivity
	case redisClient != nil:
		activityRepo = repository.NewRedisActivityRepo(redisClient, cfg.Redis.ActivityListKey, cfg.Redis.ActivityListMax)
	}
	activity, err := service.NewActivityService(service.ActivityOptions{
		LogDir:   "./logs",
		Repo:     activityRepo,
		Counters: counters,
	})
	if err != nil {
		log.Fatalf("Failed to initialize activity service: %v", err)
	}
	m.Mailer().AddSink(activity.Mail)

	// 5. Agents
	rng := service.NewRNG(cfg.Bot.Seed)
	pump := service.NewQueryPump(nil)
	seller := service.NewSeller(service.SellerOptions{
		Enabled:       cfg.Bot.EnableSeller,
		ItemsPerCycle: cfg.Bot.ItemsPerCycle,
		UseBuyPrice:   cfg.Bot.UseBuyPriceForSeller,
	}, index, catalog, m, store, rng, activity)
	if !indexed && seller.Enabled() {
		logger.Warn("No items admitted by the filter, seller disabled")
		seller.Disable()
	}
	buyer := service.NewBuyer(service.BuyerOptions{
		Enabled:     cfg.Bot.EnableBuyer,
		UseBuyPrice: cfg.Bot.UseBuyPriceForBuyer,
	}, catalog, m, store, pump, rng, activity)

	scheduler := service.NewScheduler(seller, buyer, pump, m, store, activity)
	commands := service.NewCommandService(bot, settingsRepo, m, store, activity)

	runner := service.NewRunner(scheduler, bot, time.Duration(cfg.Bot.TickSeconds)*time.Second)
	runCtx, stopRun := context.WithCancel(ctx)
	runner.Start(runCtx)

	if pgActivity != nil && cfg.Database.ActivityRetentionDays > 0 {
		go cleanupLoop(runCtx, pgActivity, time.Duration(cfg.Database.ActivityRetentionDays)*24*time.Hour)
	}

	// 6. Setup Router
	r := handler.NewRouter(cfg, handler.Handlers{
		Venues:   handler.NewVenueHandler(bot, m, commands),
		Index:    handler.NewIndexHandler(index),
		Activity: handler.NewActivityHandler(activity),
		Bot:      handler.NewBotHandler(bot, scheduler, pump),
	}, activity)

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 AuctionBot started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stopRun()
	runner.Stop()
	activity.Close()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}

	logger.Info("Server exiting")
}

// loadCatalog reads the YAML seed when configured, the database otherwise.
func loadCatalog(ctx context.Context, cfg *config.Config, db *sqlx.DB) ([]model.CatalogEntry, []uint32) {
	disabled := append([]uint32(nil), cfg.Filter.DisabledItems...)

	if cfg.Catalog.File != "" {
		f, err := repository.LoadCatalogFile(cfg.Catalog.File)
		if err != nil {
			log.Fatalf("Failed to load catalog file: %v", err)
		}
		logger.Info("Catalog loaded from file", "path", cfg.Catalog.File, "items", len(f.Items))
		return f.Items, append(disabled, f.DisabledItems...)
	}

	if db == nil {
		logger.Warn("⚠️ No catalog source configured, the seller has nothing to list")
		return nil, disabled
	}
	gdb, err := repository.NewGormDB(db)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	repo := repository.NewGormCatalogRepo(gdb)
	entries, err := repo.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	ids, err := repo.DisabledItems(ctx)
	if err != nil {
		logger.Error("⚠️ Failed to load disabled items", "error", err)
	}
	logger.Info("Catalog loaded from database", "items", len(entries))
	return entries, append(disabled, ids...)
}

func cleanupLoop(ctx context.Context, repo *repository.PostgresActivityRepo, retention time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		if err := repo.Cleanup(ctx, retention); err != nil {
			logger.Error("Activity cleanup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
