package storage

import "github.com/skywatch-bcn/planeview/pkg/core"

// Backend is the interface all observation stores must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	RecordObservation(o *core.Observation) error
}

// Nop discards observations. Used when storage.type is "none".
type Nop struct{}

func (Nop) Init() error                               { return nil }
func (Nop) Close() error                              { return nil }
func (Nop) RecordObservation(*core.Observation) error { return nil }
