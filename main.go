package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/evenmork/camwatch-backend/cmd"
)

func main() {
	// optional .env, real environments set variables directly
	if err := godotenv.Load(); err != nil {
		log.Println("main: no .env file found, using environment variables")
	}

	if err := cmd.Execute(); err != nil {
		log.Fatalf("main: %v", err)
	}
}
