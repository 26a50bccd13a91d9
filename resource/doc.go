// Package resource performs authenticated operations against one list or web
// endpoint. A Client holds immutable configuration and shared collaborators,
// so a single instance may serve concurrent callers.
package resource
