// Package core defines the shared language of the LeapApp system.
//
// This package contains:
//   - Domain entities (Module, Fragment, Entity, StateMachine, etc.)
//   - The expression AST used by guards, invariants, and computed fields
//   - The linked Application IR consumed by downstream generators
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
