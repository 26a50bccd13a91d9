// Package odata models the verbose OData v2 dialect spoken by list backends:
// query projections, filter expressions, the {"d": ...} response envelope and
// opaque list items.
package odata
