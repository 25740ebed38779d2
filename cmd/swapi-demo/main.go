package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/iagooteles/swapicache"
	"github.com/iagooteles/swapicache/internal/config"
	"github.com/iagooteles/swapicache/internal/display"
	"github.com/iagooteles/swapicache/internal/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "swapi-demo:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(".env", args, os.Stderr)
	if err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	logger.Info().EmbedObject(swapicache.Build()).Msg("Starting")

	options := []swapicache.Option{
		swapicache.WithBaseURL(cfg.BaseURL),
		swapicache.WithTimeout(cfg.Timeout()),
		swapicache.WithDebug(cfg.Debug),
		swapicache.WithLogger(swapicache.NewZerologLogger(logger)),
		swapicache.WithMetrics(),
	}
	if cfg.InsecureSkipVerifyForTesting {
		logger.Warn().Msg("TLS certificate verification is disabled")
		options = append(options, swapicache.WithInsecureSkipVerifyForTesting())
	}

	client := swapicache.New(options...)
	if !client.IsValid() {
		return client.ValidationError()
	}

	runner := display.NewRunner(client, os.Stdout,
		display.WithDebug(cfg.Debug),
		display.WithStats(client.Stats),
		display.WithLogger(logger),
	)
	server := web.NewServer(cfg.Addr(), client, runner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Server running at http://localhost:%d/\n", cfg.Port)
	fmt.Println("Open the URL in your browser and click the button to fetch Star Wars data")
	if cfg.Debug {
		fmt.Println("Debug mode: ON")
		fmt.Println("Timeout:", cfg.TimeoutMs, "ms")
	}

	return server.Run(ctx)
}
