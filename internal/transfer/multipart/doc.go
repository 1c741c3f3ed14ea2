// Package multipart uploads a file as numbered parts.
//
// Parts are read as fixed windows of the file, checksummed and uploaded in
// part-number order. An optional part concurrency uploads several windows at
// once; the completion request always lists parts in part-number order.
package multipart
