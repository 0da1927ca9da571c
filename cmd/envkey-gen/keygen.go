// Binary envkey-gen generates a new random key for use in a .env file.
package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/Jille/envkey/internal/keygen"
)

func main() {
	cfg, err := keygen.ParseConfig(pflag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Usage: envkey-gen [-s size] [-n NAME] [-f text|env|plain] [-o .env [--force]]: %v", err)
	}
	if pflag.NArg() != 0 {
		log.Fatalf("Usage: envkey-gen [-s size] [-n NAME] [-f text|env|plain] [-o .env [--force]]")
	}

	if err := keygen.Run(cfg, os.Stdout); err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
}
