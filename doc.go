// Package splist is a client for SharePoint lists exposed over the REST/OData
// API. New wires a single CredentialStore into one resource client per list,
// an error reporter that posts to the errors list, and the signed-in user's
// directory state. Commands and queries are exposed as go-command handlers.
package splist
