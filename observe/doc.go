// Package observe provides observability primitives for supplier calls.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the booking client
// or server middleware.
package observe
