package list

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	ListObjectsV2(
		ctx context.Context,
		input *s3.ListObjectsV2Input,
		opts ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)
}

// Lister enumerates objects under a prefix.
type Lister struct {
	client S3Interface
	logger *slog.Logger
}

// New creates a new Lister.
func New(client S3Interface, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Lister{
		client: client,
		logger: logger,
	}
}

// Config holds configuration for list operations.
type Config struct {
	Bucket string
	Prefix string

	// PageSize is the number of keys requested per page; 0 selects s3types.ListPageSize
	PageSize int32

	// Fetch loads metadata for the returned objects on demand
	Fetch s3types.MetadataFetcher
}

// QueryPrefix normalizes a caller prefix into the prefix sent to the store:
// one trailing "/" is stripped and a single "/" appended, so "a/b" and "a/b/"
// both select the keys under a/b/. The empty prefix selects every key.
func QueryPrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// List returns every object under the prefix. An empty listing is not an error.
func (l *Lister) List(ctx context.Context, cfg *Config) ([]*s3types.RemoteObject, error) {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > s3types.ListPageSize {
		pageSize = s3types.ListPageSize
	}
	prefix := QueryPrefix(cfg.Prefix)

	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(cfg.Bucket),
		Prefix: aws.String(prefix),
	}, func(o *s3.ListObjectsV2PaginatorOptions) {
		o.Limit = pageSize
	})

	var (
		objects []*s3types.RemoteObject
		pages   int
	)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.NewTransferError("listObjects", cfg.Bucket, prefix, err).
				WithMessage(fmt.Sprintf("page %d", pages+1))
		}
		pages++
		for _, obj := range page.Contents {
			objects = append(objects, s3types.NewRemoteObject(
				aws.ToString(obj.Key),
				aws.ToString(obj.ETag),
				string(obj.StorageClass),
				aws.ToInt64(obj.Size),
				cfg.Fetch,
			))
		}
	}

	l.logger.Debug("objects listed",
		"bucket", cfg.Bucket,
		"prefix", prefix,
		"objects", len(objects),
		"pages", pages,
	)
	return objects, nil
}
