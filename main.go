package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/c-oreills/ringoffire/config"
	"github.com/c-oreills/ringoffire/hub"
	"github.com/c-oreills/ringoffire/logging"
	"github.com/c-oreills/ringoffire/protocol"
	"github.com/c-oreills/ringoffire/telemetry"
	ws "github.com/c-oreills/ringoffire/websocket"
)

const serviceName = "ringoffire"

func main() {
	cfg, err := config.Load()
	if err != nil && !errors.Is(err, config.ErrNoDotEnv) {
		slog.Error("config error", logging.Err(err))
		os.Exit(1)
	}
	logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), serviceName, cfg.OTelEndpoint)
	if err != nil {
		slog.Error("telemetry setup failed, tracing disabled", logging.Err(err))
	}

	broadcaster := hub.New()
	handler := protocol.NewHandler(broadcaster)

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.WSPath, ws.Handler(broadcaster, handler, ws.Options{
		SendBuffer:     cfg.SendBuffer,
		MaxMessageSize: cfg.MaxMessageSize,
	}))
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(broadcaster, handler))
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		slog.Info("server starting", slog.String("port", cfg.Port), slog.String("wsPath", cfg.WSPath))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", logging.Err(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", logging.Err(err))
	}
	if err := shutdownTracing(ctx); err != nil {
		slog.Error("telemetry shutdown error", logging.Err(err))
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func statsHandler(broadcaster *hub.Hub, handler *protocol.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participants, cards := handler.Stats()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{
			"connections":  broadcaster.Stats(),
			"participants": participants,
			"cards":        cards,
		})
	}
}
