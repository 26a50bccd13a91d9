// Package auth manages the two credentials a list backend expects: an
// optional development bearer token added to the base headers once at start,
// and the short-lived form digest required on every write.
package auth
