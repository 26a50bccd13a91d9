// Package errorreport forwards application errors to a remote errors list.
// Reporting is terminal: failures are logged, optionally journaled locally,
// and never returned to the caller.
package errorreport
