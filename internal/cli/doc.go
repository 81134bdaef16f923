// Package cli parses command-line arguments, validates user input and
// handles process-level concerns like exit codes. Flags that are given
// explicitly override the model's settings block.
package cli
