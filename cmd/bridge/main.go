package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petbridge/internal/backend"
	"petbridge/internal/bridge"
	"petbridge/internal/memory"
	"petbridge/internal/protocol"
	"petbridge/internal/translog"
	"petbridge/internal/tuning"
)

// #region main
func main() {
	tuningPath := flag.String("tuning", envOr("PETBRIDGE_TUNING", "tuning.yaml"), "path to tuning.yaml")
	dbPath := flag.String("db", envOr("PETBRIDGE_DB", "petbridge.db"), "path to memory sqlite db")
	transDir := flag.String("transcripts", envOr("PETBRIDGE_TRANSCRIPTS", "transcripts"), "transcript output dir (empty disables)")
	ollamaHost := flag.String("ollama", envOr("OLLAMA_HOST", ""), "ollama host, default http://127.0.0.1:11434")
	model := flag.String("model", envOr("PETBRIDGE_MODEL", "gemma3:4b"), "ollama model name")
	noModel := flag.Bool("no-model", false, "run with the pre-classifier only, no model calls")
	flag.Parse()

	logger := log.New(os.Stdout, "[bridge] ", log.LstdFlags|log.Lmicroseconds)
	cfg := tuning.LoadOrDefault(*tuningPath)

	store, err := memory.NewStore(*dbPath, memoryConfig(cfg.Memory), nil, nil)
	if err != nil {
		logger.Fatalf("open memory store: %v", err)
	}
	defer store.Close()

	var trans *translog.Writer
	if *transDir != "" {
		trans = translog.NewWriter(*transDir)
		defer trans.Close()
	}

	queue := bridge.NewQueue()

	var asker backend.Asker
	if !*noModel {
		asker = backend.NewOllamaAsker(*ollamaHost, *model)
	}

	var srv *bridge.Server
	be := backend.New(queue, store,
		func() (protocol.ContextSnapshot, bool) { return srv.CurrentSnapshot() },
		asker, logger, backend.Config{
			BotName:        cfg.Agent.BotName,
			RetrieveBudget: cfg.Memory.RetrieveBudget,
			AssembleMax:    cfg.Memory.AssembleMaxBytes,
		})

	serverCfg := bridge.ServerConfig{
		Queue:  queue,
		Store:  store,
		Logger: logger,
		// Chat triggers a model round trip; keep the handler fast.
		ChatSink:   func(ev protocol.ChatEvent) { go be.OnChat(context.Background(), ev) },
		ResultSink: be.OnResults,
	}
	if trans != nil {
		serverCfg.Transcript = trans
	}
	srv = bridge.NewServer(serverCfg)

	httpSrv := &http.Server{Addr: cfg.Bridge.Addr, Handler: srv.Handler()}
	go func() {
		logger.Printf("listening on %s (db=%s model=%s)", cfg.Bridge.Addr, *dbPath, *model)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
}

// #endregion main

// #region helpers
func memoryConfig(t tuning.MemoryTuning) memory.Config {
	return memory.Config{
		RecentMax:        t.RecentMax,
		ImportantMax:     t.ImportantMax,
		PromoteThreshold: t.PromoteThreshold,
		DropThreshold:    t.DropThreshold,
		RecencyHorizon:   time.Duration(t.RecencyHorizonSec) * time.Second,
		DecayHalfLife:    time.Duration(t.DecayHalfLifeSec) * time.Second,
		ArchiveAfter:     time.Duration(t.ArchiveAfterSec) * time.Second,
		RelevanceFloor:   t.RelevanceFloor,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
