// Binary envkey-check verifies the key stored in a .env file.
package main

import (
	"log"
	"os"

	"github.com/spf13/pflag"

	"github.com/Jille/envkey/internal/keygen"
)

func main() {
	cfg, err := keygen.ParseCheckConfig(pflag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Usage: envkey-check -o .env [-n NAME] [-s size]: %v", err)
	}
	if pflag.NArg() != 0 {
		log.Fatalf("Usage: envkey-check -o .env [-n NAME] [-s size]")
	}

	if err := keygen.Check(cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
