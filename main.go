package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "rideshare/internal/config"
	intdb "rideshare/internal/db"
	router "rideshare/internal/http"
	"rideshare/internal/notify"
	"rideshare/internal/repositories"
	"rideshare/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	env := intconfig.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if env.JWTSecret == "" {
		if gin.Mode() == gin.ReleaseMode {
			log.Fatal("JWT_SECRET is required in release mode")
		}
		env.JWTSecret = uuid.NewString()
		log.Println("warning: JWT_SECRET not set, using a random secret for this process")
	}

	store, err := openStore(env)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer intconfig.CloseDB()

	notifier, closeNotifier, err := notify.New(env.Notify)
	if err != nil {
		log.Fatalf("notifier init failed: %v", err)
	}
	dispatcher := services.NewDispatcher(notifier, env.Notify.Timeout)

	r := router.NewRouter(env, router.Deps{Store: store, Notify: dispatcher})

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s (store=%s notify=%s)", env.AppAddr, env.StoreDriver, env.Notify.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown failed: %v", err)
	}
	dispatcher.Wait()
	if err := closeNotifier(); err != nil {
		log.Printf("notifier close failed: %v", err)
	}

	log.Println("server stopped")
}

func openStore(env intconfig.Env) (repositories.Store, error) {
	if env.StoreDriver == "memory" {
		log.Println("warning: using in-memory store, data is lost on restart")
		return repositories.NewMemoryStore(env.LockTimeout), nil
	}

	db, err := intconfig.ConnectDB(env.DB)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if env.AutoMigrate {
		if err := intdb.EnsureSchema(ctx, db); err != nil {
			return nil, err
		}
	} else if missing := intdb.MissingTables(ctx, db); len(missing) > 0 {
		log.Printf("warning: missing tables %v and DB_AUTO_MIGRATE is off", missing)
	}
	return repositories.MySQLStore{DB: db, LockTimeout: env.LockTimeout}, nil
}
