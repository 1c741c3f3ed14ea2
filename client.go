package s3transfer

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	deleteop "github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/delete"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/head"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// DefaultRegion is used when the target names no region.
const DefaultRegion = "us-east-1"

// Client is the transfer engine for one TransferTarget.
//
// A Client holds no per-call state: upload ids and part lists live in the
// call that created them. It is safe for concurrent use.
type Client struct {
	// s3Client is the backing store
	s3Client s3api.S3API

	// target is fixed at construction and never mutated
	target s3types.TransferTarget

	cfg    s3types.ClientConfig
	logger *slog.Logger

	// fs is the filesystem local files are read from
	fs billy.Filesystem

	// resolvePath maps a caller's local path to a path on fs
	resolvePath func(string) (string, error)

	// httpClient is the transport owned by this client, if any
	httpClient aws.HTTPClient

	uploader *upload.Uploader
	lister   *list.Lister
	deleter  *deleteop.BatchDeleter
	header   *head.Header
}

// New creates a transfer client for target. Credentials are resolved once:
// explicit keys become a static provider, an ambient profile goes through the
// SDK's default chain with the named shared profile.
//
// Example:
//
//	client, err := s3transfer.New(ctx, target,
//	    s3transfer.WithLogger(logger),
//	    s3transfer.WithPartConcurrency(4),
//	)
func New(ctx context.Context, target s3types.TransferTarget, opts ...s3types.Option) (*Client, error) {
	if err := validation.Target(target); err != nil {
		return nil, err
	}
	if target.Region == "" {
		target.Region = DefaultRegion
	}

	cfg := newConfig(opts)

	awsCfg, err := loadAWSConfig(ctx, target, cfg)
	if err != nil {
		return nil, errors.NewError("client initialization", err).WithBucket(target.Bucket)
	}

	// LoadDefaultConfig rejects a plain *http.Client when AWS_CA_BUNDLE is set.
	httpClient := httpClientFor(cfg)

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if target.Endpoint != "" {
			o.BaseEndpoint = aws.String(target.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
		if httpClient != nil {
			o.HTTPClient = httpClient
		}
	})

	client := newClient(s3Client, target, cfg)
	client.httpClient = s3Client.Options().HTTPClient
	return client, nil
}

// NewWithClient creates a transfer client over an existing S3API
// implementation. This is primarily used for testing with mocked clients.
func NewWithClient(s3Client s3api.S3API, target s3types.TransferTarget, opts ...s3types.Option) (*Client, error) {
	if err := validation.Target(target); err != nil {
		return nil, err
	}
	if target.Region == "" {
		target.Region = DefaultRegion
	}
	return newClient(s3Client, target, newConfig(opts)), nil
}

func newConfig(opts []s3types.Option) s3types.ClientConfig {
	cfg := s3types.ClientConfig{
		PartConcurrency: 1,
		AbortOnFailure:  true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

func newClient(s3Client s3api.S3API, target s3types.TransferTarget, cfg s3types.ClientConfig) *Client {
	logger := cfg.Logger.With("bucket", target.Bucket)

	// The OS filesystem is rooted at /, so relative paths are made absolute
	// against the working directory first. Caller-supplied filesystems see
	// paths unchanged.
	filesystem := cfg.Filesystem
	resolvePath := func(p string) (string, error) { return p, nil }
	if filesystem == nil {
		filesystem = osfs.New("/")
		resolvePath = filepath.Abs
	}

	return &Client{
		s3Client:    s3Client,
		target:      target,
		cfg:         cfg,
		logger:      logger,
		fs:          filesystem,
		resolvePath: resolvePath,
		uploader:    upload.New(s3Client, logger),
		lister:      list.New(s3Client, logger),
		deleter:     deleteop.New(s3Client, logger),
		header:      head.New(s3Client, logger),
	}
}

// loadAWSConfig builds the SDK configuration for target. SDK retries are
// disabled unless more than one attempt was requested.
func loadAWSConfig(ctx context.Context, target s3types.TransferTarget, cfg s3types.ClientConfig) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(target.Region),
	}

	switch creds := target.Credentials.(type) {
	case s3types.ExplicitCredentials:
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	case s3types.AmbientProfile:
		if creds.Profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(creds.Profile))
		}
	}

	if cfg.MaxAttempts > 1 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(cfg.MaxAttempts))
	} else {
		loadOpts = append(loadOpts, config.WithRetryer(func() aws.Retryer {
			return aws.NopRetryer{}
		}))
	}

	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// httpClientFor returns the HTTP client requested through options, or nil
// to keep the SDK's default transport.
func httpClientFor(cfg s3types.ClientConfig) *http.Client {
	switch {
	case cfg.HTTPClient != nil:
		return cfg.HTTPClient
	case cfg.Timeout > 0:
		return &http.Client{Timeout: cfg.Timeout}
	}
	return nil
}

// Target returns the transfer target the client writes to.
func (c *Client) Target() s3types.TransferTarget {
	return c.target
}

// Close releases idle connections held by the client's transport.
func (c *Client) Close() error {
	if closer, ok := c.httpClient.(interface{ CloseIdleConnections() }); ok {
		closer.CloseIdleConnections()
	}
	return nil
}

// uploadConfig derives the per-upload settings from the client configuration.
func (c *Client) uploadConfig() *s3types.UploadConfig {
	return &s3types.UploadConfig{
		ContentType:     c.cfg.ContentType,
		StorageClass:    c.cfg.StorageClass,
		SSE:             c.cfg.SSE,
		PartConcurrency: c.cfg.PartConcurrency,
		AbortOnFailure:  c.cfg.AbortOnFailure,
		Progress:        c.cfg.Progress,
	}
}
