// Command autoplay runs a headless self-play session: the engine
// generates both the scenarios and the player inputs for a fixed
// number of turns. Useful for soak-testing prompts and backends
// without the console UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kalandor/engine/internal/config"
	"github.com/kalandor/engine/internal/engine"
	"github.com/kalandor/engine/internal/inventory"
	"github.com/kalandor/engine/internal/logger"
	"github.com/kalandor/engine/internal/services"
)

func main() {
	turns := flag.Int("turns", 5, "number of self-play turns to run")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	result, err := eng.StartSession(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start session: %v\n", err)
		os.Exit(1)
	}
	printTurn(eng, "(session start)", result)

	for i := 0; i < *turns; i++ {
		input, err := driver.SelfPlay(ctx, eng.LastScenario())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Self-play failed: %v\n", err)
			os.Exit(1)
		}
		eng.AddUserMessage(input)

		result, err := eng.GenerateResponse(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Turn failed: %v\n", err)
			os.Exit(1)
		}
		printTurn(eng, input, result)
	}
}

func printTurn(eng *engine.Engine, input string, result *engine.TurnResult) {
	fmt.Printf("> %s\n", input)
	if result == nil {
		fmt.Println("(turn abandoned: unparseable response)")
		return
	}
	fmt.Printf("%s\n", result.Answer)
	for _, effect := range result.Effects {
		fmt.Printf("  * %s\n", effect)
	}
	fmt.Printf("[location=%s score=%d inventory=%v]\n\n",
		eng.Location(), eng.Score(), eng.Inventory().ItemNames())
}
