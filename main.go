package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fbetancur/CrediSync360/cmd"
	"github.com/fbetancur/CrediSync360/config"
	"github.com/fbetancur/CrediSync360/database"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: credisync migrate [up|down|status] [args...]")
	}

	path := config.Get().DatabasePath
	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp(path)
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(path, steps)
	case "status":
		return database.MigrateStatus(path)
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}
