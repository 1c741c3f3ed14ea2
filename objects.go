package s3transfer

import (
	"context"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// ListObjects returns every object under prefix in the order the store lists
// them. "a/b" and "a/b/" are equivalent and select the keys under a/b/.
// An empty result is not an error. Object metadata is fetched on first use.
//
// Example:
//
//	objects, err := client.ListObjects(ctx, "servers/web/daily")
//	if err != nil {
//	    return err
//	}
//	for _, obj := range objects {
//	    fmt.Printf("%s (%d bytes)\n", obj.Key, obj.Size)
//	}
func (c *Client) ListObjects(ctx context.Context, prefix string) ([]*s3types.RemoteObject, error) {
	if err := validation.Prefix(prefix); err != nil {
		return nil, err
	}
	return c.lister.List(ctx, &list.Config{
		Bucket: c.target.Bucket,
		Prefix: prefix,
		Fetch:  c.header.Fetcher(c.target.Bucket),
	})
}

// Delete removes the given objects in batches of at most 1000 keys, issued
// one after another. Deleting keys that do not exist succeeds. Keys the store
// refuses individually are reported in the result; a failed request returns
// a transfer error naming the batch.
func (c *Client) Delete(ctx context.Context, objects ...s3types.ObjectRef) (*s3types.DeleteResult, error) {
	keys := make([]string, 0, len(objects))
	for _, obj := range objects {
		keys = append(keys, obj.ObjectKey())
	}
	return c.deleter.Delete(ctx, c.target.Bucket, keys)
}

// DeleteKeys is Delete for raw keys.
func (c *Client) DeleteKeys(ctx context.Context, keys ...string) (*s3types.DeleteResult, error) {
	refs := make([]s3types.ObjectRef, len(keys))
	for i, k := range keys {
		refs[i] = s3types.Key(k)
	}
	return c.Delete(ctx, refs...)
}

// Checksum returns the base64 SHA-256 checksum the store recorded for key.
// For a single-shot upload it equals UploadResult.Checksum.
func (c *Client) Checksum(ctx context.Context, key string) (string, error) {
	if err := validation.ObjectKey(key); err != nil {
		return "", err
	}
	return c.header.Checksum(ctx, c.target.Bucket, key)
}

// Metadata returns the headers of the object stored under key.
func (c *Client) Metadata(ctx context.Context, key string) (map[string]string, error) {
	if err := validation.ObjectKey(key); err != nil {
		return nil, err
	}
	return c.header.Metadata(ctx, c.target.Bucket, key)
}
