package main

import (
	"os"

	"github.com/insightdelivered/reconciliation-bot/internal/commands"
)

func main() {
	os.Exit(commands.Execute())
}
