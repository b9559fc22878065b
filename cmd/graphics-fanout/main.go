package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/lumacast/showrunner/common/bootstrap"
	"github.com/lumacast/showrunner/common/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fanout only needs Redis; no database, no switcher
	components, err := bootstrap.Setup(ctx, "graphics-fanout",
		bootstrap.WithoutDB(),
		bootstrap.WithoutSwitcher(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap graphics-fanout: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	log := components.Logger

	hub := NewHub(log)
	go hub.Run()

	subscriber := NewRedisSubscriber(components.Redis.GetUnderlying(), hub, log)
	go func() {
		if err := subscriber.Start(ctx); err != nil {
			log.Error("redis subscriber failed", "error", err)
			os.Exit(1)
		}
	}()

	wsServer := NewServer(hub, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	mux.HandleFunc("/stats", wsServer.HandleStats)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	srv := server.New("graphics-fanout", components.Config.Service.Port, mux, log)
	if err := srv.Start(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
