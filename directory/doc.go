// Package directory resolves the signed-in user and their profile record,
// and wraps profile search, profile edits and photo replacement over the
// users list. Remote failures are handed to the error reporter and the last
// known state is kept.
package directory
