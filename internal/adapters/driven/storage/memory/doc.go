// Package memory provides in-memory implementations of the driven ports.
// They back tests and the "memory" processing log setting.
package memory
