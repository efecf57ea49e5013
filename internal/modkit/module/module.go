// Package module holds the contract modkit wires, apart from modkit so a module can import it without a cycle
package module

import "context"

// Module is a built unit a command runs once and then releases
type Module interface {
	// Name labels the module in logs
	Name() string

	// Ports returns the module's typed ports struct
	Ports() any

	// Close releases clients the module opened; safe to call once the run ends
	Close(ctx context.Context) error
}
