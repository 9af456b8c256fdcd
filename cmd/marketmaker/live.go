package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"lobmm/internal/config"
	"lobmm/internal/live"
	"lobmm/internal/metrics"
	"lobmm/internal/replay"
	"lobmm/internal/state"
)

func newLiveCmd(configPath *string) *cobra.Command {
	var apiKey, apiSecret string
	var paper bool

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run the quoting loop against a live exchange gateway until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(*configPath, apiKey, apiSecret, paper)
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "exchange API key")
	cmd.Flags().StringVar(&apiSecret, "api-secret", "", "exchange API secret")
	cmd.Flags().BoolVar(&paper, "paper", false, "dry-run: log actions instead of sending them to the exchange")
	return cmd
}

func runLive(configPath, apiKey, apiSecret string, paper bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("live: %w", err)
	}
	if apiKey != "" {
		cfg.Gateway.APIKey = apiKey
	}
	if apiSecret != "" {
		cfg.Gateway.APISecret = apiSecret
	}
	if paper {
		cfg.Gateway.Paper = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("live: %w", err)
	}

	strat, err := buildStrategy(cfg.Strategy.Kind, cfg)
	if err != nil {
		return fmt.Errorf("live: %w", err)
	}

	// Only a paper gateway is wired up without a concrete exchange
	// integration to target; a real Gateway implementation is a deployment
	// concern, supplied by whoever points this at an actual venue.
	var gateway live.Gateway = live.PaperGateway{}
	if !cfg.Gateway.Paper {
		log.Warn().Msg("live: no exchange gateway configured, falling back to paper mode")
	}

	events := make(chan replay.Event)
	fillPoll := time.NewTicker(time.Second)
	defer fillPoll.Stop()

	loop := live.NewLoop(strat, gateway, live.Config{
		RingCapacity: cfg.Feature.VolatilityWindow,
		Events:       events,
		FillPoll:     tickerChan(fillPoll),
	})
	loop.Observer = metrics.ObservingCollector{C: metrics.GetCollector()}

	if cfg.Store.RedisURL != "" {
		writer, err := state.NewWriter(cfg.Store.RedisURL, "lobmm")
		if err != nil {
			return fmt.Errorf("live: %w", err)
		}
		defer writer.Close()
		loop.State = writer
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := make(chan error, 1)
	go func() { runErr <- loop.Run(ctx) }()

	<-ctx.Done()
	log.Info().Msg("live: shutdown signal received, cancelling resting quotes")
	loop.CancelAll(context.Background())
	loop.Kill(nil)
	close(events)

	if err := <-runErr; err != nil {
		return fmt.Errorf("live: %w", err)
	}
	return nil
}

func tickerChan(t *time.Ticker) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		for range t.C {
			out <- struct{}{}
		}
	}()
	return out
}
