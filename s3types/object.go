package s3types

import (
	"context"
	"sync"
)

// Header names used as keys of RemoteObject metadata.
const (
	HeaderContentType    = "Content-Type"
	HeaderContentLength  = "Content-Length"
	HeaderETag           = "ETag"
	HeaderLastModified   = "Last-Modified"
	HeaderStorageClass   = "x-amz-storage-class"
	HeaderEncryption     = "x-amz-server-side-encryption"
	HeaderChecksumSHA256 = "x-amz-checksum-sha256"
	HeaderMetaPrefix     = "x-amz-meta-"
)

// ObjectRef identifies an object to delete. Both *RemoteObject and Key implement it.
type ObjectRef interface {
	ObjectKey() string
}

// Key is a raw object key usable wherever an ObjectRef is accepted.
type Key string

// ObjectKey returns the key itself.
func (k Key) ObjectKey() string { return string(k) }

// MetadataFetcher loads the header map of an object.
type MetadataFetcher func(ctx context.Context, key string) (map[string]string, error)

// RemoteObject is an object returned by a listing. Its metadata is fetched
// lazily on first use and cached; the cache cell is safe for concurrent use.
type RemoteObject struct {
	Key          string
	ETag         string
	StorageClass string
	Size         int64

	fetch MetadataFetcher

	mu       sync.Mutex
	fetched  bool
	metadata map[string]string
}

// NewRemoteObject creates a RemoteObject whose metadata is loaded with fetch.
func NewRemoteObject(key, etag, storageClass string, size int64, fetch MetadataFetcher) *RemoteObject {
	return &RemoteObject{
		Key:          key,
		ETag:         etag,
		StorageClass: storageClass,
		Size:         size,
		fetch:        fetch,
	}
}

// ObjectKey implements ObjectRef.
func (o *RemoteObject) ObjectKey() string { return o.Key }

// Metadata returns the object's header map, fetching it on the first call.
// A failed fetch is not cached, so a later call tries again.
func (o *RemoteObject) Metadata(ctx context.Context) (map[string]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fetched {
		return o.metadata, nil
	}
	if o.fetch == nil {
		o.fetched = true
		o.metadata = map[string]string{}
		return o.metadata, nil
	}

	md, err := o.fetch(ctx, o.Key)
	if err != nil {
		return nil, err
	}
	o.metadata = md
	o.fetched = true
	return o.metadata, nil
}

// Encryption returns the server-side encryption algorithm of the object, or "".
func (o *RemoteObject) Encryption(ctx context.Context) (string, error) {
	md, err := o.Metadata(ctx)
	if err != nil {
		return "", err
	}
	return md[HeaderEncryption], nil
}
