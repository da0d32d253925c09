// Package schema turns the source catalog into target DDL.
//
// Introspect reads table and column metadata through database.Source and
// produces an immutable Catalog. MapType translates each column type, and
// Materialize creates one table on the target from its descriptors.
package schema
