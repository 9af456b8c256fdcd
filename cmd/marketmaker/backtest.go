package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"lobmm/internal/config"
	"lobmm/internal/ingest"
	"lobmm/internal/metrics"
	"lobmm/internal/model"
	"lobmm/internal/replay"
	"lobmm/internal/strategy"
)

func newBacktestCmd(configPath *string) *cobra.Command {
	var date, symbol, strategyName, eventsPath string

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay a recorded event log through the book and strategy deterministically",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(*configPath, date, symbol, strategyName, eventsPath)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "session date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "instrument symbol (informational; logged only)")
	cmd.Flags().StringVar(&strategyName, "strategy", "naive", "quoting strategy: naive|ev")
	cmd.Flags().StringVar(&eventsPath, "events", "", "path to a JSON-Lines event log (defaults to <date>.jsonl)")
	cmd.MarkFlagRequired("date")
	return cmd
}

func runBacktest(configPath, date, symbol, strategyName, eventsPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	if strategyName == "" {
		strategyName = cfg.Strategy.Kind
	}
	if eventsPath == "" {
		eventsPath = date + ".jsonl"
	}

	f, err := os.Open(eventsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Error().Str("path", eventsPath).Msg("backtest: event log not found")
			os.Exit(2)
		}
		return fmt.Errorf("backtest: open events: %w", err)
	}
	defer f.Close()

	strat, err := buildStrategy(strategyName, cfg)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	sim := replay.New(strat, cfg.Feature.VolatilityWindow)
	sim.Observer = metrics.ObservingCollector{C: metrics.GetCollector()}

	var fillLog *replay.FileFillLog
	if cfg.Store.FillLogPath != "" {
		fillLog, err = replay.OpenFileFillLog(cfg.Store.FillLogPath)
		if err != nil {
			return fmt.Errorf("backtest: %w", err)
		}
		defer fillLog.Close()
	}

	decoder := ingest.NewDecoder()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	events := make([]replay.Event, 0, 4096)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := decoder.DecodeLine(line)
		if err != nil {
			return fmt.Errorf("backtest: decode event: %w", err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("backtest: read events: %w", err)
	}
	if len(events) == 0 {
		log.Error().Str("path", eventsPath).Msg("backtest: event log is empty")
		os.Exit(2)
	}

	if err := sim.Run(replay.NewSliceSource(events)); err != nil {
		if errors.Is(err, model.ErrEngineFault) {
			log.Error().Err(err).Msg("backtest: engine fault")
			os.Exit(1)
		}
		return fmt.Errorf("backtest: %w", err)
	}

	for _, fl := range sim.Fills {
		if fillLog != nil {
			if err := fillLog.Append(fl); err != nil {
				return fmt.Errorf("backtest: %w", err)
			}
		}
	}

	log.Info().
		Str("symbol", symbol).
		Str("date", date).
		Int("fills", len(sim.Fills)).
		Float64("inventory", float64(sim.Inventory())).
		Msg("backtest complete")
	return nil
}

func buildStrategy(name string, cfg *config.Config) (strategy.Strategy, error) {
	switch name {
	case "naive":
		size, err := parseSize(cfg.Strategy.OrderSize)
		if err != nil {
			return nil, err
		}
		return &strategy.NaiveFixedSpread{
			SpreadTicks: model.Price(cfg.Strategy.SpreadTicks),
			Size:        size,
		}, nil
	case "ev":
		size, err := parseSize(cfg.Strategy.OrderSize)
		if err != nil {
			return nil, err
		}
		maxAbs, err := parseSize(cfg.Strategy.MaxAbsInventory)
		if err != nil {
			return nil, err
		}
		return &strategy.EVMakerSkew{
			MaxHalfSpreadTicks: cfg.Strategy.MaxHalfSpreadTicks,
			SkewK:              cfg.Strategy.SkewK,
			TickSearchStep:     cfg.Strategy.TickSearchStep,
			MaxAbsInventory:    maxAbs,
			SizeFn:             func(strategy.Inventory) model.Size { return size },
			FillProb:           defaultFillProbTable,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// parseSize parses a decimal order-size string from config into a
// fixed-scale model.Size. An empty string is treated as zero.
func parseSize(s string) (model.Size, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", s, err)
	}
	return model.ParseSize(d)
}

var defaultFillProbTable = strategy.TablePoints{
	{DistanceTicks: 1, Probability: 0.6},
	{DistanceTicks: 5, Probability: 0.35},
	{DistanceTicks: 10, Probability: 0.2},
	{DistanceTicks: 25, Probability: 0.05},
}
