package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"agon/internal/config"
	"agon/internal/model"
	"agon/internal/stats"
	"agon/internal/storage"
	"agon/internal/strategy"
	"agon/internal/tournament"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "game":
		return runGame(ctx, args[1:])
	case "tournament":
		return runTournament(ctx, args[1:])
	case "experiment":
		return runExperiment(ctx, args[1:])
	case "agents":
		return runAgents(ctx, args[1:])
	case "experiments":
		return runExperiments(ctx, args[1:])
	case "report":
		return runReport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runGame(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("game", flag.ContinueOnError)
	configPath := fs.String("config", "", "experiment config file (yaml)")
	gameName := fs.String("game", string(model.GamePrisonersDilemma), "game type")
	agentList := fs.String("agents", "", "comma-separated agent names (default: first two configured)")
	rounds := fs.Int("rounds", 0, "rounds to play (default: config value)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(*configPath, *logLevel)
	if err != nil {
		return err
	}
	coordinator, cleanup, err := buildCoordinator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	names := splitList(*agentList)
	if len(names) == 0 {
		registered := coordinator.Agents()
		if len(registered) < 2 {
			return fmt.Errorf("need at least 2 configured agents")
		}
		names = registered[:2]
	}
	if *rounds == 0 {
		*rounds = cfg.Rounds
	}

	result, err := coordinator.RunSingleGame(ctx, model.GameType(*gameName), names, *rounds)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runTournament(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tournament", flag.ContinueOnError)
	configPath := fs.String("config", "", "experiment config file (yaml)")
	gameName := fs.String("game", string(model.GamePrisonersDilemma), "game type")
	rounds := fs.Int("rounds", 0, "rounds per match (default: config value)")
	repetitions := fs.Int("repetitions", 0, "repetitions per pairing (default: config value)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(*configPath, *logLevel)
	if err != nil {
		return err
	}
	coordinator, cleanup, err := buildCoordinator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if *rounds == 0 {
		*rounds = cfg.Rounds
	}
	if *repetitions == 0 {
		*repetitions = cfg.Repetitions
	}

	results, failures, err := coordinator.RunTournament(ctx, model.GameType(*gameName), *rounds, *repetitions)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"results":  results,
		"failures": failures,
	})
}

func runExperiment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("experiment", flag.ContinueOnError)
	configPath := fs.String("config", "", "experiment config file (yaml)")
	resultsDir := fs.String("results-dir", "", "artifact directory (default: config value)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(*configPath, *logLevel)
	if err != nil {
		return err
	}
	if *resultsDir != "" {
		cfg.ResultsDir = *resultsDir
	}

	coordinator, cleanup, err := buildCoordinator(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	record, err := coordinator.RunExperiment(ctx, tournament.ExperimentConfig{
		GameTypes:   cfg.GameTypes(),
		Rounds:      cfg.Rounds,
		Repetitions: cfg.Repetitions,
		Description: cfg.Description,
		SaveResults: cfg.SaveResults,
	})
	if err != nil {
		return err
	}

	if cfg.SaveResults {
		if err := stats.WriteExperiment(cfg.ResultsDir, record); err != nil {
			return fmt.Errorf("write experiment artifact: %w", err)
		}
		report := stats.BuildExperimentReport(record)
		path, err := stats.WriteExperimentReport(cfg.ResultsDir, report)
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("artifacts written", "dir", cfg.ResultsDir, "report", path)
	}

	fmt.Printf("experiment %s completed: %d game types, %d failures\n",
		record.ID, len(record.Results), len(record.Failures))
	for name, profile := range coordinator.AgentStatistics() {
		fmt.Printf("  %s (%s): avg payoff %.3f, cooperation %.3f, reputation %.3f\n",
			name, profile.Strategy, profile.AveragePayoff, profile.CooperationRate, profile.Reputation)
	}
	return nil
}

func runAgents(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("agents", flag.ContinueOnError)
	configPath := fs.String("config", "", "experiment config file (yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := loadConfig(*configPath, "error")
	if err != nil {
		return err
	}

	fmt.Println("configured agents:")
	for _, spec := range cfg.Agents {
		fmt.Printf("  %s: %s\n", spec.Name, spec.Strategy)
	}
	fmt.Println("available strategies:")
	for _, name := range strategy.Names() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func runExperiments(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("experiments", flag.ContinueOnError)
	resultsDir := fs.String("results-dir", "results", "artifact directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := stats.ListExperiments(*resultsDir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no experiments found")
		return nil
	}
	for _, record := range records {
		fmt.Printf("%s  started=%s  games=%d  failures=%d  %s\n",
			record.ID, record.StartedAtUTC, len(record.Results), len(record.Failures), record.Description)
	}
	return nil
}

func runReport(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	resultsDir := fs.String("results-dir", "results", "artifact directory")
	id := fs.String("id", "", "experiment id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return usageError("report requires -id")
	}

	record, ok, err := stats.ReadExperiment(*resultsDir, *id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("experiment not found: %s", *id)
	}

	report := stats.BuildExperimentReport(record)
	if _, err := stats.WriteExperimentReport(*resultsDir, report); err != nil {
		return err
	}
	return printJSON(report)
}

func loadConfig(path, logLevel string) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, newLogger(cfg.LogLevel), nil
}

func buildCoordinator(ctx context.Context, cfg config.Config, logger *slog.Logger) (*tournament.Coordinator, func(), error) {
	store, err := storage.NewStore(cfg.StoreBackend, cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = storage.CloseIfSupported(store)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	tcfg := tournament.Config{
		Endowment:      cfg.Endowment,
		Multiplier:     cfg.Multiplier,
		KnowledgeValue: cfg.KnowledgeValue,
		SharingCost:    cfg.SharingCost,
		Logger:         logger,
		Store:          store,
		Rand:           rand.New(rand.NewSource(seed)),
	}
	if cfg.RewardMatrix != nil {
		matrix := cfg.RewardMatrix.RewardMatrix()
		tcfg.Matrix = &matrix
	}

	coordinator := tournament.New(tcfg)
	for _, spec := range cfg.Agents {
		if _, err := coordinator.CreateAgent(spec.Name, spec.Strategy, spec.StrategyParams()); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return coordinator, cleanup, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "", "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: agonctl <game|tournament|experiment|agents|experiments|report> [flags]", msg)
}
