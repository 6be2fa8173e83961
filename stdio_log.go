package main

import (
	"fmt"
	"os"
	"time"
)

// openStdioLog opens path for appending and marks the start of this run so
// crashes from consecutive runs can be told apart.
func openStdioLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "--- marquee pid %d started %s ---\n", os.Getpid(), time.Now().Format(time.RFC3339)); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
