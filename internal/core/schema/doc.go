// Package schema builds the validation schema for a form submission.
//
// A schema is the fixed base field set of an entity kind (asset, booking)
// merged with the tenant's active custom field definitions. The result is a
// concrete, ordered list of rules that can be inspected, serialized, or
// rendered as an OpenAPI schema, and is applied to raw form values by the
// validation package.
//
// This is part of the Functional Core - all functions are pure with no I/O.
// Schemas are built per request and never cached.
package schema
