// Package errors provides classified errors for the sitekit command line.
//
// Components return their own typed errors (schema, navigation, composition); the CLI
// wraps them in a ClassifiedError so it can pick an exit code and decide how much to
// print.
//
//	err := errors.WrapError(cause, errors.CategoryDocs, "sidebar could not be resolved").
//		WithContext("content_dir", dir).
//		Build()
package errors
