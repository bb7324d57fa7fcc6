package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/go-hangout/internal/api"
	"github.com/npezzotti/go-hangout/internal/config"
	"github.com/npezzotti/go-hangout/internal/hangout"
	"github.com/npezzotti/go-hangout/internal/stats"
	"github.com/npezzotti/go-hangout/internal/store"
)

const defaultSigningKey = "wT0phFUusHZIrDhL9bUKPUhwaxKhpi/SaI6PtgB+MgU="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	mongoURI       string
	mongoDatabase  string
	opTimeout      time.Duration
	signingKey     string
	memoryStore    bool
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongodb connection URI")
	flag.StringVar(&mongoDatabase, "mongo-db", "hangout", "mongodb database name")
	flag.DurationVar(&opTimeout, "op-timeout", 5*time.Second, "per-operation database timeout")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.BoolVar(&memoryStore, "memory-store", false, "use the in-memory store instead of mongodb")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[hangoutd] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, mongoURI, mongoDatabase, signingKey, opTimeout, allowedOrigins, memoryStore)
	if err != nil {
		logger.Fatal("config:", err)
	}

	var st store.HangoutStore
	if cfg.MemoryStore {
		st = store.NewMemoryHangoutStore()
	} else {
		st, err = store.NewMongoHangoutStore(cfg.MongoURI, cfg.MongoDatabase, cfg.OpTimeout)
		if err != nil {
			logger.Fatal("store open:", err)
		}
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Println("store close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	registry := hangout.NewRegistry(logger)

	hangoutServer, err := hangout.NewHangoutServer(logger, st, registry, statsUpdater)
	if err != nil {
		logger.Fatal("new hangout server:", err)
	}

	srv := api.NewHangoutApp(mux, logger, hangoutServer, st, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down hangout server...")
	if err := hangoutServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("hangout server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
