// Package ecschema models typed engineering schema graphs: schemas own
// named items (entity, struct, mixin, relationship and custom attribute
// classes, enumerations, units, phenomena, constants, and related
// variants), items own properties, and cross-schema references are
// lazy keys resolved through a shared SchemaContext.
//
// Mutation with structural validation lives in the editor package,
// structural comparison of two graphs in the diff package, and change
// application with conflict detection in the merge package.
package ecschema
