package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stockpulse/src/broadcast"
	"stockpulse/src/config"
	"stockpulse/src/engine"
	"stockpulse/src/logger"
	"stockpulse/src/registry"
	"stockpulse/src/server"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// 2. Setup Components
	rnd := engine.RealRand{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
	priceEngine := engine.NewPriceEngine(config.MConfig, appLogger, rnd, engine.RealClock{})
	userRegistry := registry.NewUserRegistry(appLogger)

	srv := server.NewServer(config.MConfig, appLogger, priceEngine, userRegistry)
	loop := broadcast.NewLoop(config.MConfig, priceEngine, userRegistry, appLogger)

	appLogger.Info("Available stocks: %s", strings.Join(priceEngine.Symbols(), ", "))

	// 3. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// 4. Start Broadcast Loop
	loop.Start()

	// 5. Wait for termination
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	// Best-effort stop: release the ticker, no drain of in-flight pushes
	appLogger.Info("Shutting down...")
	loop.Stop()
}
