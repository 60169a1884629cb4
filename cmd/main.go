package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/samber/mo"

	"stickybot/clients"
	discordclient "stickybot/clients/discord"
	slackclient "stickybot/clients/slack"
	"stickybot/config"
	"stickybot/db"
	"stickybot/handlers"
	"stickybot/models"
	stickyservice "stickybot/services/sticky"
	"stickybot/services/stickystate"
	stickyusecase "stickybot/usecases/sticky"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	chatClient, err := newChatClient(cfg)
	if err != nil {
		return err
	}

	stateStore, cleanup, err := newStateStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Channel states live for the whole process, in configuration order.
	states := make([]*models.ChannelState, 0, len(cfg.Channels))
	for _, channel := range cfg.Channels {
		states = append(states, &models.ChannelState{
			ChannelID:  channel.ID,
			StickyText: channel.StickyText,
			MessageID:  mo.None[string](),
		})
	}

	service := stickyservice.NewStickyService(chatClient, cfg.PreDeleteDelay)
	useCase := stickyusecase.NewStickyUseCase(service, stateStore, states, cfg.CycleInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := useCase.Hydrate(ctx); err != nil {
		return err
	}

	if cfg.StatusAddr != "" {
		statusServer := newStatusServer(cfg, useCase)
		go func() {
			log.Printf("✅ Status server listening on http://%s", cfg.StatusAddr)
			if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("❌ Status server error: %v", err)
			}
		}()
		defer shutdownStatusServer(statusServer)
	}

	return useCase.Run(ctx)
}

func newChatClient(cfg *config.AppConfig) (clients.ChatClient, error) {
	switch cfg.Platform {
	case config.PlatformSlack:
		return slackclient.NewSlackClient(cfg.BotToken, cfg.HTTPTimeout), nil
	default:
		return discordclient.NewDiscordClient(cfg.BotToken, cfg.HTTPTimeout)
	}
}

func newStateStore(cfg *config.AppConfig) (stickystate.StateStore, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		dbConn, err := db.NewConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		repo := db.NewPostgresStickyStateRepository(dbConn, cfg.DatabaseSchema)
		return stickystate.NewPostgresStateStore(repo), func() { _ = dbConn.Close() }, nil
	case cfg.StateFilePath != "":
		return stickystate.NewFileStateStore(cfg.StateFilePath), func() {}, nil
	default:
		return stickystate.NewNopStateStore(), func() {}, nil
	}
}

func newStatusServer(cfg *config.AppConfig, useCase *stickyusecase.StickyUseCase) *http.Server {
	router := mux.NewRouter()
	statusHandler := handlers.NewStatusHandler(useCase, cfg.Platform)
	statusHandler.SetupEndpoints(router)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	return &http.Server{
		Addr:              cfg.StatusAddr,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 30 * time.Second,
	}
}

func shutdownStatusServer(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Status server shutdown error: %v", err)
		return
	}
	log.Printf("✅ Status server stopped gracefully")
}
