package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/MrSnakeDoc/daylog/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.New().ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.RedString("❌ daylog: %v", err))
		stop()
		os.Exit(1)
	}
}
