package main

import (
	"context"
	"os"
	"os/signal"

	"wishshare/cmd/parseurl/commands"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	commands.ExecuteContext(ctx)
}
