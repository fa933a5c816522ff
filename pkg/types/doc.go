// Package types defines the JSON wire types of the wearguard prediction API.
// They are shared by the HTTP handlers and the CLI, and are kept separate
// from the pipeline's in-memory types so the wire format can stay stable.
package types
