// Package internal contains private implementation details of the transfer engine.
// These packages are not intended for external use and may change without notice.
//
// The internal packages are organized as follows:
//   - planner: chunk planning under the store's size and part limits
//   - operations: single-shot upload, list, delete and head calls
//   - transfer: multipart upload coordination
//   - progress: percentage milestones
//   - checksum: SHA-256 content digests
//   - validation: input validation logic
//   - pool: reusable copy buffers
package internal
