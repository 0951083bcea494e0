package main

import (
	"github.com/joho/godotenv"

	"docrag/internal/cli"
)

func main() {
	// API keys may live in a .env file; its absence is fine.
	_ = godotenv.Load()

	cli.Execute()
}
