// Package pool provides reusable copy buffers.
//
// Checksums are computed by streaming file windows through a hash; the
// buffers used for that copy are pooled so concurrent uploads do not allocate
// one per part.
package pool
