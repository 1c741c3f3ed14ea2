// Package validation checks transfer targets, object keys and prefixes
// before any request reaches the store.
//
// Keys are limited to 1024 bytes without control characters or path
// traversal segments; bucket names follow the S3 naming rules.
package validation
