package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nijaru/podcast-automation/handlers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := handlers.NewApp().Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
