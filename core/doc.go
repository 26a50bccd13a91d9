// Package core holds the shared contracts of the splist client: configuration
// and its loaders, the ordered header set, the error envelope, logging and
// metrics helpers. Resource, credential and reporting packages depend on core;
// core depends on none of them.
package core
