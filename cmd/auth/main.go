package main

import (
	"fmt"
	"os"

	"github.com/forrrest/auth/internal/auth/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "auth: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	return application.Run()
}
