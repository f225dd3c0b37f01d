package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/comanda-live/api/internal/auth"
	"github.com/comanda-live/api/internal/catalog"
	"github.com/comanda-live/api/internal/channel"
	"github.com/comanda-live/api/internal/config"
	"github.com/comanda-live/api/internal/router"
	"github.com/comanda-live/api/internal/store"
	"github.com/comanda-live/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	menuStore := catalog.NewPGStore(pool)
	items, err := menuStore.Load(ctx)
	if err != nil {
		log.Fatalf("Unable to load menu: %v", err)
	}
	menu := catalog.New(items)
	log.Printf("Loaded %d menu items", len(items))

	hub := ws.NewHub()
	go hub.Run(ctx)

	orders := channel.NewPostgres(pool, cfg.AppID)
	registry := store.NewRegistry(ctx, orders, hub.BroadcastOrders)
	defer registry.Close()

	r := router.New(cfg, router.Deps{
		Registry:  registry,
		Menu:      menu,
		MenuStore: menuStore,
		Users:     auth.NewPGUsers(pool),
		Hub:       hub,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: server shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
