package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	_ "time/tzdata"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CoinLens/internal/collector"
	"CoinLens/internal/config"
	"CoinLens/internal/dashboard"
	"CoinLens/internal/narrator"
	"CoinLens/internal/notifier"
	"CoinLens/internal/recorder"
	"CoinLens/internal/scheduler"
	"CoinLens/internal/tui"
)

// mockBasePrice seeds the offline data source.
const mockBasePrice = 95_000_000

func main() {
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	configPath := flag.String("config", defaultPath, "Path to config file")
	headless := flag.Bool("headless", false, "Run without the terminal UI (logs to stderr, Telegram only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	logFile, err := setupLogging(cfg, *headless)
	if err != nil {
		log.Fatal().Err(err).Msg("setup logging")
	}
	if logFile != nil {
		defer logFile.Close()
	}
	log.Info().Str("config", *configPath).Bool("headless", *headless).Msg("CoinLens starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, _ := cfg.Location()

	// Init data source
	var fetcher collector.Fetcher
	if cfg.DataSource.Mock {
		fetcher = &collector.MockFetcher{Quote: cfg.DataSource.QuoteCurrency, Price: mockBasePrice, Location: loc}
	} else {
		fetcher = collector.NewCryptoCompareFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey,
			cfg.DataSource.QuoteCurrency, cfg.Proxy, loc)
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	col := collector.NewCollector(fetcher, cfg.DataSource.MarketLimit)

	// Init narrator
	var gen narrator.Generator
	if cfg.Narrator.APIKey != "" {
		g, err := narrator.NewGeminiGenerator(ctx, cfg.Narrator.APIKey, cfg.Narrator.Model, collector.NewHTTPClient(cfg.Proxy, 0))
		if err != nil {
			log.Fatal().Err(err).Msg("init narrator")
		}
		gen = g
	} else {
		log.Warn().Msg("no narrator api key, AI features will show fallback text")
		gen = narrator.Offline()
	}
	narr := narrator.New(gen, cfg.DataSource.QuoteCurrency)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite journal failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	orch := dashboard.New(ctx, col, narr, rec, dashboard.Options{
		DefaultMarket:    cfg.Dashboard.DefaultMarket,
		DefaultTimeframe: cfg.Timeframe(),
		CandleCount:      cfg.DataSource.CandleCount,
		NewsLimit:        cfg.DataSource.NewsLimit,
		RequestTimeout:   cfg.RequestTimeout(),
	})
	orch.Start()
	defer orch.Close()

	sched := scheduler.NewScheduler(orch)
	if err := sched.RegisterAll(cfg.Dashboard.TickerCron); err != nil {
		log.Fatal().Err(err).Msg("register ticker poll")
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		cmds := notifier.NewCommands(orch, cfg.DataSource.QuoteCurrency)
		go tn.StartPolling(ctx, cmds.Handle)
		log.Info().Msg("telegram polling started")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if *headless {
		log.Info().Msg("CoinLens is running. Press Ctrl+C to stop.")
		<-sigCh
		log.Info().Msg("shutdown signal received, stopping...")
	} else {
		go func() {
			<-sigCh
			cancel()
		}()
		p := tea.NewProgram(tui.NewModel(ctx, orch), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			log.Error().Err(err).Msg("terminal UI exited")
		}
	}

	cancel()
	log.Info().Msg("CoinLens stopped")
}

// setupLogging configures the global zerolog logger. The terminal UI owns
// stdout, so in that mode logs go to a file.
func setupLogging(cfg *config.Config, headless bool) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)

	if headless {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return f, nil
}
