// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports). Services depend on these interfaces; concrete
// implementations live under internal/adapters/driven.
package driven
