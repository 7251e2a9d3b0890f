// Package cli provides the command-line interface of smartdeck. It handles
// flag parsing, command creation and configuration management using cobra
// and viper, and wires the configured service clients into the card
// generation processor.
package cli
