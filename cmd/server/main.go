package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skyraid/internal/config"
	"skyraid/internal/data"
	"skyraid/internal/lobby"
	"skyraid/internal/room"
	"skyraid/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[SERVER] config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var board data.Leaderboard = data.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pg, err := data.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[SERVER] failed to open leaderboard: %v", err)
		}
		defer pg.Close()
		board = pg
	} else {
		log.Println("[SERVER] DATABASE_URL not set, leaderboard kept in memory")
	}
	if cfg.AdminTokenHash == "" {
		log.Println("[SERVER] ADMIN_TOKEN_HASH not set, leaderboard reset disabled")
	}

	opts := room.DefaultOptions()
	opts.TickHz = cfg.TickHz
	opts.BroadcastHz = cfg.BroadcastHz
	rooms := room.NewManager(opts)
	defer rooms.Shutdown()

	mux := lobby.NewMux(
		transport.NewHandler(rooms),
		lobby.NewScores(board, cfg.AdminTokenHash),
		rooms,
		cfg.StaticDir,
	)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[SERVER] shutdown: %v", err)
		}
	}()

	log.Printf("[SERVER] listening on port %s (%d Hz sim, %d Hz snapshots)", cfg.Port, cfg.TickHz, cfg.BroadcastHz)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[SERVER] ListenAndServe: %v", err)
	}
	log.Println("[SERVER] stopped")
}
