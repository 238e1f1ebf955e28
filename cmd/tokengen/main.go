// Package main mints upload tokens for the icon server.
//
// It loads (or creates) the server's token key from the data directory and
// prints a token authorizing the named uploader. Run it on the server host;
// the key never leaves the data directory.
//
// Usage:
//
//	go run ./cmd/tokengen -data-path ~/iconcommons/data -uploader alice
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/iconcommons/iconcommons-server/internal/auth"
)

var (
	dataPath = flag.String("data-path", "", "Base path for data storage (default: ~/iconcommons/data)")
	uploader = flag.String("uploader", "", "Name recorded as the owner of uploaded icons (required)")
	duration = flag.Duration("duration", 720*time.Hour, "Token lifetime")
)

func main() {
	flag.Parse()

	if *uploader == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -uploader <name> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	base := *dataPath
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to resolve home directory: %v", err)
		}
		base = filepath.Join(home, "iconcommons", "data")
	}

	key, err := auth.LoadOrGenerateKey(base)
	if err != nil {
		log.Fatalf("Failed to load token key: %v", err)
	}

	tokens, err := auth.NewTokenService(key, *duration)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	token, err := tokens.GenerateToken(*uploader)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("Upload token for %q (valid %s):\n%s\n", *uploader, *duration, token)
}
