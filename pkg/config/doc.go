// Package config loads dictamen configuration and form data.
//
// Configuration files are decoded, validated against the JSON schema of
// their kind and checked further by the kind itself. Errors point at the
// offending location of the source document.
package config
