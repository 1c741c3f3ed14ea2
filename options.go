package s3transfer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// WithLogger sets the structured logger. Default is a logger that discards output.
func WithLogger(logger *slog.Logger) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Logger = logger
	}
}

// WithFilesystem sets the filesystem local files are read from.
// Default is the OS filesystem; relative paths resolve against the working
// directory.
func WithFilesystem(filesystem billy.Filesystem) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithPartConcurrency sets how many parts of one multipart upload may be in
// flight at once. Default is 1, which uploads parts strictly in order.
func WithPartConcurrency(n int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		if n > 0 {
			c.PartConcurrency = n
		}
	}
}

// WithAbortOnFailure controls whether a failed multipart upload is aborted.
// Default is true. The abort is best effort and the original error is
// returned either way.
func WithAbortOnFailure(abort bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.AbortOnFailure = abort
	}
}

// WithStorageClass sets the storage class of uploaded objects.
func WithStorageClass(storageClass s3types.StorageClass) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.StorageClass = storageClass
	}
}

// WithServerSideEncryption requests store-managed encryption of uploaded objects.
func WithServerSideEncryption(sse s3types.SSEType) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.SSE = sse
	}
}

// WithContentType fixes the content type of uploaded objects. By default it
// is detected from the head of each file.
func WithContentType(contentType string) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ContentType = contentType
	}
}

// WithProgressHandler sets the receiver of multipart progress events.
// The handler may be called from several goroutines.
func WithProgressHandler(handler s3types.ProgressHandler) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Progress = handler
	}
}

// WithWarningHandler sets the receiver of chunk size adjustment warnings.
func WithWarningHandler(handler s3types.WarningHandler) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Warning = handler
	}
}

// WithTimeout sets the HTTP client timeout for individual requests.
// Default is no timeout (0). Values should be positive durations.
func WithTimeout(timeout time.Duration) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.Timeout = timeout
	}
}

// WithForcePathStyle forces path-style URLs instead of virtual-hosted style.
// It is implied by a custom endpoint.
func WithForcePathStyle(forcePathStyle bool) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithMaxAttempts enables the SDK's standard retryer with n attempts per
// request. By default requests are attempted once.
func WithMaxAttempts(n int) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.MaxAttempts = n
	}
}

// WithHTTPClient sets a custom HTTP client. It takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) s3types.Option {
	return func(c *s3types.ClientConfig) {
		c.HTTPClient = client
	}
}
