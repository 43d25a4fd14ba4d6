// Command console is the terminal front end for a Kalandor session.
// It owns presentation only: the narrative state lives in the engine,
// and the console feeds it player input (or idle self-play input) one
// turn at a time.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kalandor/engine/internal/config"
	"github.com/kalandor/engine/internal/engine"
	"github.com/kalandor/engine/internal/inventory"
	"github.com/kalandor/engine/internal/logger"
	"github.com/kalandor/engine/internal/services"
)

const logFileName = "kalandor.log"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to a file: stdout belongs to the UI.
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logFile.Close() }()
	log := logger.Setup(cfg, logFile)

	ctx := context.Background()

	textSvc := services.NewOllamaService(cfg.OllamaURL, cfg.OllamaModel, log)

	var imageSvc services.ImageService = services.DisabledImageService{}
	if cfg.VeniceAPIKey != "" {
		imageSvc = services.NewVeniceImageService(cfg.VeniceAPIKey, cfg.VeniceImageModel, log)
	}

	var cache services.Cache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisCache(cfg.RedisURL, log)
		if err != nil {
			log.Warn("Cache disabled", "error", err)
		} else if err := redisCache.Ping(ctx); err != nil {
			log.Warn("Cache unreachable, continuing without it", "error", err)
		} else {
			cache = redisCache
			defer func() { _ = redisCache.Close() }()
		}
	}

	counter := services.HeuristicTokenCounter{}
	client := engine.NewGenerationClient(textSvc, imageSvc, counter, cache, cfg.TokenBudget, log)
	history := engine.NewContextManager(client, counter, cfg.TokenBudget, log)
	inv := inventory.NewEngine(client, cfg.MaxSlots, log)
	eng := engine.New(client, history, inv, log)
	driver := engine.NewSelfPlayDriver(client, log)

	p := tea.NewProgram(NewConsoleUI(cfg, eng, driver),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
