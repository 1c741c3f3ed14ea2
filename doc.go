// Package s3transfer moves large local files into an S3 bucket and manages
// the objects stored under a path prefix.
//
// Uploads are planned against the store's limits: a single request carries at
// most 5 GiB, an object holds at most 5 TiB and a multipart upload has at most
// 10,000 parts. Files larger than the configured chunk size are uploaded in
// parts, and the chunk size is enlarged in whole MiB steps when the part count
// would otherwise overflow. Every request carries a SHA-256 checksum the store
// verifies on receipt.
//
// Key features:
//   - Single-shot and multipart uploads with SHA-256 integrity checks
//   - Progress reporting at 10% milestones of completed parts
//   - Paginated listing under a prefix with lazily fetched metadata
//   - Batch deletion in requests of up to 1000 keys
//   - Typed errors for oversized objects, failed transfers and missing objects
//
// Example usage:
//
//	client, err := s3transfer.New(ctx, s3types.TransferTarget{
//	    Bucket:       "backups",
//	    Region:       "eu-west-1",
//	    PathPrefix:   "servers/web",
//	    ChunkSizeMiB: 5,
//	})
//	if err != nil {
//	    return err
//	}
//
//	result, err := client.Upload(ctx, "/var/backups/web.tar", "servers/web/web.tar")
//	if err != nil {
//	    return err
//	}
//
// The core performs no internal retries. Callers that want them wrap whole
// operations, as the storage package does.
package s3transfer
