package patch

import (
	"log/slog"
	"time"

	"github.com/joshuapare/romkit/rom/addrspace"
)

type config struct {
	regions    []addrspace.Region
	hasRegions bool
	mapping    addrspace.Mapping
	hasMapping bool
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*config)

// WithRegions replaces the default region map (whole image writable, header
// and vectors read-only).
func WithRegions(regions ...addrspace.Region) Option {
	return func(c *config) {
		c.regions = append([]addrspace.Region(nil), regions...)
		c.hasRegions = true
	}
}

// WithMapping forces the cartridge mapping instead of detecting it from the
// header.
func WithMapping(m addrspace.Mapping) Option {
	return func(c *config) {
		c.mapping = m
		c.hasMapping = true
	}
}

// WithLogger sets the logger. Writes are logged at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithClock sets the time source used for WriteReport timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}
