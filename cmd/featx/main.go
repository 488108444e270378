// Package main provides the featx CLI for extracting and mixing audio features.
//
// Usage:
//
//	featx [flags] <command> [args]
//
// Commands:
//
//	list     - Registered extractors
//	dim      - Feature dimension of a recipe at a sampling rate
//	config   - Print the default recipe of an extractor
//	extract  - Decode an audio file and store its features
//	energy   - Total energy of stored feature matrices
//	mix      - Mix two stored feature matrices
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-features/cmd/featx/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
