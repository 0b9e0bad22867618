package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petbridge/internal/agent"
	"petbridge/internal/bot"
	"petbridge/internal/bridge"
	"petbridge/internal/move"
	"petbridge/internal/tuning"
)

// #region main
func main() {
	tuningPath := flag.String("tuning", envOr("PETBRIDGE_TUNING", "tuning.yaml"), "path to tuning.yaml")
	mode := flag.String("bot", envOr("PETBRIDGE_BOT", "sim"), "bot adapter: sim or rcon")
	rconAddr := flag.String("rcon", envOr("RCON_ADDR", "127.0.0.1:25575"), "rcon address (rcon mode)")
	rconPass := flag.String("rcon-pass", envOr("RCON_PASSWORD", ""), "rcon password (rcon mode)")
	flag.Parse()

	logger := log.New(os.Stdout, "[agent] ", log.LstdFlags|log.Lmicroseconds)
	cfg := tuning.LoadOrDefault(*tuningPath)

	b, sim, err := buildBot(*mode, *rconAddr, *rconPass, cfg.Agent.BotName, logger)
	if err != nil {
		logger.Fatalf("bot init: %v", err)
	}

	mv := move.NewState(move.Config{Rate: cfg.Agent.MoveRate})
	dispatcher := agent.NewDispatcher(b, mv, logger)
	client := bridge.NewClient(cfg.Bridge.Addr, time.Duration(cfg.Bridge.RequestTimeoutMs)*time.Millisecond)
	sched := agent.NewScheduler(client, dispatcher, mv, b, agent.SchedulerConfig{
		ContextEveryTicks: cfg.Agent.ContextEveryTicks,
		CallTimeout:       time.Duration(cfg.Bridge.RequestTimeoutMs) * time.Millisecond,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Println("shutting down")
		cancel()
	}()

	interval := time.Duration(cfg.Agent.TickIntervalMs) * time.Millisecond
	if sim != nil {
		// Keep the simulated world in step with the movement machine.
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if mv.Active() {
						sim.Advance(cfg.Agent.MoveRate)
					}
				}
			}
		}()
	}

	logger.Printf("ticking every %s against %s (%s bot)", interval, cfg.Bridge.Addr, *mode)
	sched.Run(ctx, interval)
}

// #endregion main

// #region helpers
func buildBot(mode, rconAddr, rconPass, name string, logger *log.Logger) (bot.Bot, *bot.SimBot, error) {
	switch mode {
	case "rcon":
		rb, err := bot.DialRcon(rconAddr, rconPass, name)
		if err != nil {
			return nil, nil, err
		}
		if err := rb.Spawn(0, 64, 0); err != nil {
			logger.Printf("spawn failed, continuing: %v", err)
		}
		return rb, nil, nil
	case "sim":
		sim := bot.NewSimBot()
		if err := sim.Spawn(0, 64, 0); err != nil {
			return nil, nil, err
		}
		return sim, sim, nil
	default:
		logger.Fatalf("unknown bot adapter %q", mode)
		return nil, nil, nil
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
