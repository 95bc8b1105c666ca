// Package core defines the shared language of the wbemctl system.
//
// This package contains:
//   - The tagged Variant value and its kinds
//   - Status codes and the StatusError carried by providers
//   - The provider contract (Subsystem, Locator, Services, Record, cursors)
//   - Security policy levels applied at connect time
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
