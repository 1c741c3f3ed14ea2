package head

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	HeadObject(
		ctx context.Context,
		input *s3.HeadObjectInput,
		opts ...func(*s3.Options),
	) (*s3.HeadObjectOutput, error)
}

// Header reads object headers.
type Header struct {
	client S3Interface
	logger *slog.Logger
}

// New creates a new Header.
func New(client S3Interface, logger *slog.Logger) *Header {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Header{
		client: client,
		logger: logger,
	}
}

func (h *Header) head(ctx context.Context, op, bucket, key string) (*s3.HeadObjectOutput, error) {
	output, err := h.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket:       aws.String(bucket),
		Key:          aws.String(key),
		ChecksumMode: types.ChecksumModeEnabled,
	})
	if err != nil {
		if errors.IsAPINotFound(err) {
			return nil, errors.NewNotFoundError(op, bucket, key)
		}
		return nil, errors.NewTransferError(op, bucket, key, err)
	}
	return output, nil
}

// Metadata returns the object's headers keyed by their wire names.
// User metadata appears under the x-amz-meta- prefix.
func (h *Header) Metadata(ctx context.Context, bucket, key string) (map[string]string, error) {
	output, err := h.head(ctx, "headObject", bucket, key)
	if err != nil {
		return nil, err
	}

	md := make(map[string]string, 8+len(output.Metadata))
	set := func(name, value string) {
		if value != "" {
			md[name] = value
		}
	}
	set(s3types.HeaderContentType, aws.ToString(output.ContentType))
	if output.ContentLength != nil {
		set(s3types.HeaderContentLength, strconv.FormatInt(*output.ContentLength, 10))
	}
	set(s3types.HeaderETag, aws.ToString(output.ETag))
	if output.LastModified != nil {
		set(s3types.HeaderLastModified, output.LastModified.UTC().Format(http.TimeFormat))
	}
	set(s3types.HeaderStorageClass, string(output.StorageClass))
	set(s3types.HeaderEncryption, string(output.ServerSideEncryption))
	set(s3types.HeaderChecksumSHA256, aws.ToString(output.ChecksumSHA256))
	for name, value := range output.Metadata {
		md[s3types.HeaderMetaPrefix+strings.ToLower(name)] = value
	}

	h.logger.Debug("object metadata fetched", "bucket", bucket, "key", key, "headers", len(md))
	return md, nil
}

// Checksum returns the SHA-256 checksum the store recorded for the object.
// Objects assembled from parts carry a checksum of part checksums suffixed
// with the part count.
func (h *Header) Checksum(ctx context.Context, bucket, key string) (string, error) {
	output, err := h.head(ctx, "checksum", bucket, key)
	if err != nil {
		return "", err
	}
	sum := aws.ToString(output.ChecksumSHA256)
	if sum == "" {
		return "", errors.NewNotFoundError("checksum", bucket, key).
			WithMessage("object has no SHA-256 checksum")
	}
	return sum, nil
}

// Fetcher binds Metadata to a bucket for use as lazy RemoteObject metadata.
func (h *Header) Fetcher(bucket string) s3types.MetadataFetcher {
	return func(ctx context.Context, key string) (map[string]string, error) {
		return h.Metadata(ctx, bucket, key)
	}
}
