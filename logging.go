package main

import (
	"fmt"
	"io"
	"log"
	"os"
)

// setupLogging mirrors everything written through the log package to
// both stdout and an append-only logfile. The caller owns closing the
// returned file.
func setupLogging(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, f))
	log.SetFlags(log.LstdFlags)
	return f, nil
}
