package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certificate-server/config"
	"certificate-server/core"
	"certificate-server/handlers/api/sessions"
	"certificate-server/handlers/api/templates"
	"certificate-server/handlers/api/versions"
	"certificate-server/handlers/websocket"
	"certificate-server/session"
	"certificate-server/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

func corsOptions(allowedOrigins []string) cors.Options {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}
			if allowed[origin] {
				return true
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}
			switch parsed.Scheme {
			case "http", "https":
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "::1":
					return true
				}
			}
			return false
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func setupRouter(store core.TemplateStore, registry *session.Registry, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOptions(allowedOrigins)))

	r.Get("/api/placeholders", templates.HandlePlaceholders())

	r.Route("/api/templates", func(r chi.Router) {
		r.Get("/", templates.HandleList(store))
		r.Post("/", templates.HandleCreate(store))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", templates.HandleGet(store))
			r.Put("/", templates.HandleUpdate(store))
			r.Delete("/", templates.HandleDelete(store))
		})
	})

	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", sessions.HandleList(registry))
		r.Post("/", sessions.HandleOpen(registry))
		r.Get("/active", func(w http.ResponseWriter, r *http.Request) {
			render.JSON(w, r, websocket.GetActiveSessions())
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", sessions.HandleGet(registry))
			r.Delete("/", sessions.HandleClose(registry))
			r.Post("/commands", sessions.HandleCommands(registry))
			r.Post("/undo", sessions.HandleUndo(registry))
			r.Post("/redo", sessions.HandleRedo(registry))
			r.Post("/save", sessions.HandleSave(registry))
		})
	})

	// Version routes are only available with stores that keep versions.
	if versionStore, ok := store.(core.VersionStore); ok {
		r.Route("/api/templates/{templateId}/versions", func(r chi.Router) {
			r.Post("/", versions.HandleCreateVersion(store, versionStore))
			r.Get("/", versions.HandleListVersions(versionStore))
			r.Get("/count", versions.HandleGetVersionCount(versionStore))
		})

		r.Route("/api/templates/{templateId}/settings", func(r chi.Router) {
			r.Get("/", versions.HandleGetSettings(versionStore))
			r.Put("/", versions.HandleUpdateSettings(versionStore))
		})

		r.Route("/api/versions/{versionId}", func(r chi.Router) {
			r.Get("/", versions.HandleGetVersion(versionStore))
			r.Put("/", versions.HandleUpdateVersion(versionStore))
			r.Delete("/", versions.HandleDeleteVersion(versionStore))
			r.Post("/restore", versions.HandleRestoreVersion(store, versionStore))
		})

		logrus.Info("Version API routes registered")
	} else {
		logrus.Warn("Version API not available - requires memory or sqlite storage")
	}

	return r
}

func waitForShutdown(cancel context.CancelFunc, server *http.Server, ioo *socketio.Server) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC
	logrus.WithField("signal", s.String()).Info("Shutting down")

	cancel()
	ioo.Close(nil)

	ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}

func main() {
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	logLevel := flag.String("loglevel", "", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", "", "Set the server listen address")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := stores.GetStore(ctx, cfg)
	registry := session.NewRegistry(store, session.WithHistoryLimit(cfg.HistoryLimit))
	go registry.RunJanitor(ctx, time.Minute, cfg.SessionIdleTimeout)

	r := setupRouter(store, registry, cfg.AllowedOrigins)
	ioo := websocket.SetupSocketIO(registry, cfg.AllowedOrigins)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	server := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	logrus.WithField("addr", cfg.ListenAddr).Info("starting server")
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown(cancel, server, ioo)
}
