// Package operations contains the store operation implementations used by the
// transfer engine: upload, list, delete and head.
//
// Each operation is isolated into its own subpackage for better organization
// and testability.
package operations
