package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mvp-joe/modcheck/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx)
	cancel()
	os.Exit(code)
}
