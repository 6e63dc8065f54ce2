package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/standard"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := standard.Execute(ctx); err != nil {
		if !errors.Is(err, standard.ErrOffline) {
			fmt.Fprintf(os.Stderr, "command error: %v\n", err)
		}
		os.Exit(1)
	}
}
