package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/evenmork/camwatch-backend/handlers"
	"github.com/evenmork/camwatch-backend/realtime"
	"github.com/evenmork/camwatch-backend/watcher"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with websocket broadcasting and the stale sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			return runServe(app)
		},
	}
}

func runServe(app *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	go hub.Run()

	current := app.currentService(hub)
	sweeper := watcher.NewSweeper(app.cameras, current, app.cfg.MaxAge)
	go sweeper.Run(ctx)

	cameraHandler := &handlers.CameraHandler{Cameras: app.cameras, Current: current, Paths: app.paths}
	pictureHandler := &handlers.PictureHandler{Pictures: app.pictures, Paths: app.paths}

	r := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-Modified-Since", "If-None-Match"},
		ExposedHeaders:   []string{"Etag", "Last-Modified"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Route("/cameras/{camera_id}", func(r chi.Router) {
			r.Get("/", cameraHandler.Show)
			r.Get("/file/{file}", cameraHandler.ShowFile)
		})
		r.Route("/pictures/{picture_id}", func(r chi.Router) {
			r.Get("/", pictureHandler.Show)
			r.Get("/download", pictureHandler.Download)
		})
	})

	r.Get("/ws", hub.ServeWS)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
