// Package dispatcher routes named actions to handlers.
//
// Handlers register under exact action names in a Registry; several
// handlers may share a name, the highest priority one that CanHandle the
// action wins. Dispatch builds a handler.Context for the invoking document,
// runs the handler with panic recovery and records per-action metrics.
//
// Handlers that implement handler.Describer also report whether an action
// is currently enabled and what its menu label is; the external command
// handlers use this for their cancel toggle.
package dispatcher
