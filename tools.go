//go:build tools

package main

// Pins the swag CLI used to generate docs/swagger from the handler
// annotations.
import (
	_ "github.com/swaggo/swag"
)
