// Package s3types provides shared type definitions for the transfer engine.
package s3types

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	units "github.com/docker/go-units"
	"github.com/go-git/go-billy/v5"
)

// Size limits imposed by the object store. They form a compatibility contract
// and must not be changed.
const (
	// MiB is one mebibyte, the unit chunk sizes are configured and adjusted in
	MiB int64 = 1024 * 1024

	// GiB is one gibibyte
	GiB int64 = 1024 * MiB

	// TiB is one tebibyte
	TiB int64 = 1024 * GiB

	// MaxSingleObjectBytes is the largest object a single PUT request may carry
	MaxSingleObjectBytes = 5 * GiB

	// MaxMultipartObjectBytes is the largest object a multipart upload may produce
	MaxMultipartObjectBytes = 5 * TiB

	// MaxParts is the maximum number of parts of one multipart upload
	MaxParts = 10000

	// MaxDeleteBatch is the maximum number of keys per batch delete request
	MaxDeleteBatch = 1000

	// ListPageSize is the number of entries requested per list page
	ListPageSize int32 = 1000
)

// Credentials is the resolved authentication variant of a TransferTarget.
// It is either ExplicitCredentials or AmbientProfile.
type Credentials interface {
	isCredentials()
}

// ExplicitCredentials authenticates with a static access key pair.
type ExplicitCredentials struct {
	AccessKeyID     string
	SecretAccessKey string

	// SessionToken is optional and only set for temporary credentials
	SessionToken string
}

func (ExplicitCredentials) isCredentials() {}

// AmbientProfile authenticates through the environment: the default credential
// chain, or a named shared-config profile, or the instance role.
type AmbientProfile struct {
	// Profile is the shared config profile name; empty selects the default chain
	Profile string
}

func (AmbientProfile) isCredentials() {}

// TransferTarget describes where objects are stored. It is created once per
// storage session from validated configuration and never mutated.
type TransferTarget struct {
	// Bucket is the destination bucket name
	Bucket string

	// Region is the bucket region; defaults to us-east-1
	Region string

	// PathPrefix is the key namespace packages are stored under
	PathPrefix string

	// Credentials selects explicit keys or the ambient profile; nil means ambient
	Credentials Credentials

	// ChunkSizeMiB is the requested multipart chunk size; 0 disables multipart
	ChunkSizeMiB int

	// Endpoint is an optional custom endpoint for S3-compatible stores
	Endpoint string
}

// ChunkBytes returns the requested chunk size in bytes.
func (t TransferTarget) ChunkBytes() int64 {
	return int64(t.ChunkSizeMiB) * MiB
}

// TransferMode selects how a file is transferred.
type TransferMode int

const (
	// ModeSingleShot uploads the file with one PUT request
	ModeSingleShot TransferMode = iota

	// ModeMultipart uploads the file as numbered parts stitched together on completion
	ModeMultipart
)

// String returns the mode name used in logs and errors.
func (m TransferMode) String() string {
	if m == ModeMultipart {
		return "multipart"
	}
	return "single-shot"
}

// ChunkSizeAdjusted is the warning emitted when the requested chunk size had to be
// enlarged to keep a multipart upload within MaxParts.
type ChunkSizeAdjusted struct {
	// Key is the remote key of the upload, set by the engine
	Key string

	// OriginalMiB is the requested chunk size in whole MiB, rounded down
	OriginalMiB int64

	// AdjustedMiB is the chunk size actually used in whole MiB, rounded down
	AdjustedMiB int64

	// SuggestedSplitBytes is the adjusted chunk size in bytes times MaxParts:
	// files split into pieces of this size keep the original chunk size
	SuggestedSplitBytes int64
}

// String renders the warning for humans.
func (w ChunkSizeAdjusted) String() string {
	return fmt.Sprintf(
		"chunk size of %d MiB adjusted to %d MiB to stay within %d parts; "+
			"to enforce the chosen chunk size split the file into pieces of %s (chunk size x %d)",
		w.OriginalMiB, w.AdjustedMiB, MaxParts,
		units.BytesSize(float64(w.SuggestedSplitBytes)), MaxParts,
	)
}

// ChunkPlan is the transfer strategy computed for one upload.
type ChunkPlan struct {
	Mode                TransferMode
	FileSize            int64
	RequestedChunkBytes int64
	EffectiveChunkBytes int64

	// TotalParts is ceil(FileSize / EffectiveChunkBytes) for multipart plans and 1 otherwise
	TotalParts int

	// Adjustment is set when EffectiveChunkBytes was enlarged
	Adjustment *ChunkSizeAdjusted
}

// PartSize returns the byte length of the given 1-based part.
func (p ChunkPlan) PartSize(partNumber int) int64 {
	offset := int64(partNumber-1) * p.EffectiveChunkBytes
	if remaining := p.FileSize - offset; remaining < p.EffectiveChunkBytes {
		return remaining
	}
	return p.EffectiveChunkBytes
}

// UploadPart records one uploaded part of a multipart upload.
type UploadPart struct {
	// PartNumber is 1-based and contiguous
	PartNumber int32

	// Checksum is the base64 SHA-256 of the part
	Checksum string

	// ETag is the part tag returned by the store
	ETag string
}

// ProgressEvent reports that a multipart upload crossed a 10% boundary.
type ProgressEvent struct {
	Key     string
	Percent int

	// Completed is the number of parts done when the boundary was crossed
	Completed int

	TotalParts int
}

// ProgressHandler receives progress events. It may be called from several goroutines.
type ProgressHandler func(ProgressEvent)

// WarningHandler receives chunk size adjustment warnings.
type WarningHandler func(ChunkSizeAdjusted)

// StorageClass represents the storage class for uploaded objects.
type StorageClass string

// Predefined storage classes
const (
	StorageClassStandard           StorageClass = "STANDARD"
	StorageClassReducedRedundancy  StorageClass = "REDUCED_REDUNDANCY"
	StorageClassStandardIA         StorageClass = "STANDARD_IA"
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"
	StorageClassGlacierIR          StorageClass = "GLACIER_IR"
)

// SSEType represents the server-side encryption requested for uploads.
type SSEType string

// Predefined server-side encryption types
const (
	// SSES3 uses store-managed encryption keys
	SSES3 SSEType = "AES256"

	// SSEKMS uses the account's default KMS key
	SSEKMS SSEType = "aws:kms"
)

// UploadConfig holds per-upload settings derived from the client configuration.
type UploadConfig struct {
	ContentType     string
	StorageClass    StorageClass
	SSE             SSEType
	PartConcurrency int
	AbortOnFailure  bool
	Progress        ProgressHandler
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Key is the object key that was uploaded
	Key string

	// Size is the size of the uploaded object in bytes
	Size int64

	// Plan is the chunk plan the upload followed
	Plan ChunkPlan

	// Checksum is the base64 SHA-256 of the object for single-shot uploads
	Checksum string

	// ETag is the entity tag of the resulting object
	ETag string

	// Parts lists the uploaded parts in part-number order (multipart only)
	Parts []UploadPart

	// Duration is how long the upload took
	Duration time.Duration
}

// DeleteResult contains the result of a delete operation.
type DeleteResult struct {
	// Requested is the number of keys submitted
	Requested int

	// Batches is the number of batch requests issued
	Batches int

	// Failed lists keys the store refused to delete
	Failed []DeleteError
}

// DeleteError represents a key the store reported as not deleted.
type DeleteError struct {
	Key     string
	Code    string
	Message string
}

// ClientConfig holds configuration for the transfer client.
type ClientConfig struct {
	Logger          *slog.Logger
	Filesystem      billy.Filesystem // Filesystem local files are read from
	PartConcurrency int
	AbortOnFailure  bool
	StorageClass    StorageClass
	SSE             SSEType
	ContentType     string
	Progress        ProgressHandler
	Warning         WarningHandler
	Timeout         time.Duration
	ForcePathStyle  bool
	MaxAttempts     int
	HTTPClient      *http.Client
}

// Option is a functional option for configuring the transfer client.
type Option func(*ClientConfig)
