// Package validation checks caller input before any request reaches the store.
package validation

import (
	"fmt"
	"net"
	"path"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// MaxKeyLength is the longest object key the store accepts, in bytes.
const MaxKeyLength = 1024

type bucketRule struct {
	broken  func(string) bool
	message string
}

// Bucket name rules in the order they are checked.
var bucketRules = []bucketRule{
	{
		broken:  func(b string) bool { return len(b) < 3 || len(b) > 63 },
		message: "bucket name must be between 3 and 63 characters long",
	},
	{
		broken: func(b string) bool {
			return strings.IndexFunc(b, func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '.' || r == '-')
			}) >= 0
		},
		message: "bucket name can only contain lowercase letters, numbers, dots, and hyphens",
	},
	{
		broken: func(b string) bool {
			first, last := b[0], b[len(b)-1]
			return !isAlnum(first) || !isAlnum(last)
		},
		message: "bucket name must start and end with a letter or number",
	},
	{
		broken:  func(b string) bool { return strings.Contains(b, "..") },
		message: "bucket name cannot contain two adjacent periods",
	},
	{
		broken:  func(b string) bool { return net.ParseIP(b) != nil },
		message: "bucket name cannot be formatted as an IP address",
	},
}

// BucketName validates a bucket name against the store's DNS naming rules.
func BucketName(bucket string) error {
	if bucket == "" {
		return errors.NewInvalidInputError("validateBucketName", "bucket name cannot be empty")
	}
	for _, rule := range bucketRules {
		if rule.broken(bucket) {
			return errors.NewInvalidInputError("validateBucketName", rule.message).WithBucket(bucket)
		}
	}
	return nil
}

// ObjectKey validates a remote object key. Keys may hold any UTF-8 text
// except control characters and must not escape their namespace.
func ObjectKey(key string) error {
	switch {
	case key == "":
		return errors.NewInvalidInputError("validateObjectKey", "object key cannot be empty")
	case len(key) > MaxKeyLength:
		return errors.NewInvalidInputError("validateObjectKey",
			fmt.Sprintf("object key cannot exceed %d bytes", MaxKeyLength)).WithKey(key)
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return errors.NewInvalidInputError("validateObjectKey",
			"object key cannot contain control characters").WithKey(key)
	case escapes(key):
		return errors.NewInvalidInputError("validateObjectKey",
			"object key cannot contain path traversal sequences").WithKey(key)
	}
	return nil
}

// Prefix validates a listing prefix. The empty prefix selects the whole bucket.
func Prefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	return ObjectKey(prefix)
}

// Target validates a transfer target before a client is built from it.
func Target(t s3types.TransferTarget) error {
	if err := BucketName(t.Bucket); err != nil {
		return err
	}
	if t.ChunkSizeMiB < 0 {
		return errors.NewInvalidInputError("validateTarget",
			fmt.Sprintf("chunk size must not be negative, got %d MiB", t.ChunkSizeMiB)).WithBucket(t.Bucket)
	}
	if t.PathPrefix != "" && escapes(t.PathPrefix) {
		return errors.NewInvalidInputError("validateTarget",
			"path prefix cannot contain path traversal sequences").WithBucket(t.Bucket)
	}
	if c, ok := t.Credentials.(s3types.ExplicitCredentials); ok {
		if c.AccessKeyID == "" || c.SecretAccessKey == "" {
			return errors.NewInvalidInputError("validateTarget",
				"explicit credentials need both an access key id and a secret").WithBucket(t.Bucket)
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}

// escapes reports whether key climbs out of its namespace or is absolute.
func escapes(key string) bool {
	for _, seg := range strings.Split(strings.ReplaceAll(key, "\\", "/"), "/") {
		if seg == ".." {
			return true
		}
	}
	if strings.HasPrefix(key, "/") {
		return true
	}
	// Windows drive letters
	if len(key) >= 3 && key[1] == ':' && (key[2] == '\\' || key[2] == '/') {
		return true
	}
	return strings.HasPrefix(path.Clean(key), "..")
}
