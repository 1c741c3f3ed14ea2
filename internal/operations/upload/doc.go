// Package upload handles file uploads.
//
// Files within the single-request limit are sent with one PutObject call
// carrying a SHA-256 checksum; larger files are handed to the multipart
// uploader according to the chunk plan.
package upload
