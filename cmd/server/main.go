package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"BandChat/server/internal/appMiddleware"
	"BandChat/server/internal/config"
	"BandChat/server/internal/db"
	"BandChat/server/internal/handlers"
	"BandChat/server/internal/pool"
	"BandChat/server/internal/realtime"
	"BandChat/server/internal/services"
	"BandChat/server/internal/youtube"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %s", err)
	}
	defer dbPool.Close()

	if err := db.Migrate(dbPool); err != nil {
		log.Fatalf("Failed to run migrations: %s", err)
	}

	broker := realtime.NewBroker()
	defer broker.Close()

	clientPool := pool.NewPool(broker)
	go clientPool.Run(ctx)

	userService := services.NewUserService(dbPool)
	profileService := services.NewProfileService(dbPool)
	messageService := services.NewMessageService(dbPool, profileService, broker)
	readTimestampService := services.NewReadTimestampService(dbPool, profileService)

	secret := []byte(cfg.JWTSecret)
	authHandler := handlers.NewAuthHandler(userService, secret)
	profileHandler := handlers.NewProfileHandler(profileService)
	messageHandler := handlers.NewMessageHandler(messageService)
	readTimestampHandler := handlers.NewReadTimestampHandler(readTimestampService)
	wsHandler := handlers.NewWSHandler(clientPool, messageService, secret)
	youtubeHandler := handlers.NewYouTubeHandler(youtube.NewClient(cfg.YouTubeAPIKey))

	r := chi.NewRouter()

	r.Use(appMiddleware.Cors)

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(secret))
		r.Get("/api/profile", profileHandler.Get)
		r.Put("/api/profile/nickname", profileHandler.UpdateNickname)

		r.Get("/api/messages", messageHandler.List)
		r.Post("/api/messages", messageHandler.Send)

		r.Get("/api/chat/read-timestamp", readTimestampHandler.Get)
		r.Put("/api/chat/read-timestamp", readTimestampHandler.Put)

		r.Get("/api/youtube/resolve", youtubeHandler.Resolve)
	})

	r.Get("/ws", wsHandler.Serve)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server started on port :%s\n", cfg.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %s\n", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Println("Stopping the server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %s\n", err)
	}
	log.Println("Server has been successfully stopped")
}
