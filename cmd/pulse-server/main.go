package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nadavital/pulse/internal/api"
	"github.com/nadavital/pulse/internal/cache"
	"github.com/nadavital/pulse/internal/coach"
	"github.com/nadavital/pulse/internal/config"
	"github.com/nadavital/pulse/internal/gate"
	"github.com/nadavital/pulse/internal/llm"
	"github.com/nadavital/pulse/internal/profile"
	"github.com/nadavital/pulse/internal/scheduler"
	"github.com/nadavital/pulse/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting pulse-server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("WARNING: invalid timezone %q, using UTC", cfg.Timezone)
		loc = time.UTC
	}

	// Open signal store
	s, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	// Load user profile (goals, reminders, tone)
	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		log.Fatalf("Failed to load profile: %v", err)
	}

	// Create LLM client
	llmClient := llm.NewClient(cfg.OllamaURL, cfg.OllamaModel)

	// Validate LLM connection at startup
	log.Println("Validating LLM connection...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := llmClient.HealthCheck(ctx); err != nil {
		log.Printf("WARNING: LLM health check failed: %v", err)
		log.Println("Server will start but coach messages may not work")
	} else {
		log.Printf("LLM connected: %s (model: %s)", cfg.OllamaURL, cfg.OllamaModel)
	}
	cancel()

	// Wire the coaching pipeline: assembler -> cache, gate busts the
	// cache on every answered question.
	clock := clockwork.NewRealClock()
	assembler := coach.NewAssembler(s, prof, clock, loc)
	mgr := cache.NewManager(assembler, clock, cfg.CacheTTL)
	g := gate.New(s, clock, cfg.Cooldown, cfg.RepeatBlock)
	g.OnAnswer(mgr.Invalidate)

	// Create router
	router := api.NewRouter(cfg, s, mgr, g, llmClient, clock)

	// Create and start scheduler
	sched, err := scheduler.New(s, mgr, llmClient, clock, scheduler.Config{
		Timezone: cfg.Timezone,
	})
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start server
	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down gracefully...")

	// Give ongoing requests 10 seconds to complete
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Stopping scheduler...")
	if err := sched.Stop(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}

	log.Println("Closing store...")
	if err := s.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	}

	log.Println("Shutdown complete")
}
