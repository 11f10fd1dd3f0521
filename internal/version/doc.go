// Package version defines the deployed-build descriptor and the persisted
// records derived from it, fetches the descriptor from the deployment with
// cache-defeating requests, validates it against an embedded JSON schema, and
// labels the difference between two builds using semantic versioning.
package version
