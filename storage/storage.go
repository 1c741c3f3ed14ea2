package storage

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

const (
	// DefaultMaxRetries is how many times a failed file transfer is retried.
	DefaultMaxRetries = 10

	// DefaultRetryWait is the wait between two attempts of a file transfer.
	DefaultRetryWait = 30 * time.Second
)

// Client is the subset of *s3transfer.Client a Session needs.
type Client interface {
	Target() s3types.TransferTarget
	Upload(ctx context.Context, localPath, remoteKey string) (*s3types.UploadResult, error)
	ListObjects(ctx context.Context, prefix string) ([]*s3types.RemoteObject, error)
	Delete(ctx context.Context, objects ...s3types.ObjectRef) (*s3types.DeleteResult, error)
}

// Package is one set of files produced by a trigger at a point in time.
type Package struct {
	// Trigger names what produced the package, e.g. "daily"
	Trigger string

	// Time identifies the run within the trigger
	Time string

	// Filenames are relative to the session's local directory
	Filenames []string
}

// Session transfers and removes packages for one target.
type Session struct {
	client     Client
	logger     *slog.Logger
	localDir   string
	workers    int
	maxRetries int
	retryWait  time.Duration
}

// New creates a Session over client.
func New(client Client, opts ...Option) *Session {
	s := &Session{
		client:     client,
		workers:    1,
		maxRetries: DefaultMaxRetries,
		retryWait:  DefaultRetryWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// RemotePath returns the key prefix the package is stored under.
func (s *Session) RemotePath(pkg Package) string {
	return path.Join(s.client.Target().PathPrefix, pkg.Trigger, pkg.Time)
}

// Transfer uploads every file of pkg. Each file is retried as a whole on
// transfer failures; size and input errors fail at once. The first file
// that cannot be uploaded cancels the others and its error is returned.
func (s *Session) Transfer(ctx context.Context, pkg Package) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	remotePath := s.RemotePath(pkg)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, name := range pkg.Filenames {
		g.Go(func() error {
			return s.transferFile(gctx, name, path.Join(remotePath, name))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("package transferred",
		"path", remotePath,
		"files", len(pkg.Filenames),
	)
	return nil
}

func (s *Session) transferFile(ctx context.Context, name, key string) error {
	localPath := filepath.Join(s.localDir, name)
	attempt := 0

	operation := func() error {
		attempt++
		_, err := s.client.Upload(ctx, localPath, key)
		if err == nil {
			return nil
		}
		if !errors.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("file transfer failed",
			"key", key,
			"attempt", attempt,
			"error", err,
		)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.retryWait), uint64(s.maxRetries)),
		ctx,
	)
	return backoff.Retry(operation, policy)
}

// Remove deletes every object stored under the package path. The listing
// completes before anything is deleted. A package with no objects yields a
// not-found error naming the path.
func (s *Session) Remove(ctx context.Context, pkg Package) error {
	if err := validatePackage(pkg); err != nil {
		return err
	}
	remotePath := s.RemotePath(pkg)

	objects, err := s.client.ListObjects(ctx, remotePath)
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return errors.NewNotFoundError("remove", s.client.Target().Bucket, remotePath).
			WithMessage("package holds no objects")
	}

	refs := make([]s3types.ObjectRef, len(objects))
	for i, obj := range objects {
		refs[i] = obj
	}
	result, err := s.client.Delete(ctx, refs...)
	if err != nil {
		return err
	}

	s.logger.Info("package removed",
		"path", remotePath,
		"objects", result.Requested,
		"failed", len(result.Failed),
	)
	return nil
}

func validatePackage(pkg Package) error {
	if pkg.Trigger == "" || pkg.Time == "" {
		return errors.NewInvalidInputError("package", "trigger and time are required")
	}
	return nil
}
