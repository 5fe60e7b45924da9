package main

import (
	"github.com/joho/godotenv"

	"github.com/pgdrift/pgdrift/cmd/pgdrift"
)

func main() {
	// Load .env file if it exists (silently ignore errors)
	_ = godotenv.Load()

	pgdrift.Execute()
}
