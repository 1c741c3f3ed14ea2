package delete

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// S3Interface defines the S3 operations we need.
type S3Interface interface {
	DeleteObjects(
		ctx context.Context,
		input *s3.DeleteObjectsInput,
		opts ...func(*s3.Options),
	) (*s3.DeleteObjectsOutput, error)
}

// BatchDeleter deletes keys in batches of at most s3types.MaxDeleteBatch.
type BatchDeleter struct {
	client       S3Interface
	logger       *slog.Logger
	maxBatchSize int
}

// New creates a new BatchDeleter.
func New(client S3Interface, logger *slog.Logger) *BatchDeleter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BatchDeleter{
		client:       client,
		logger:       logger,
		maxBatchSize: s3types.MaxDeleteBatch,
	}
}

// Batches splits keys into consecutive slices of at most size keys.
func Batches(keys []string, size int) [][]string {
	if size <= 0 {
		size = s3types.MaxDeleteBatch
	}
	batches := make([][]string, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		end := min(start+size, len(keys))
		batches = append(batches, keys[start:end])
	}
	return batches
}

// Delete removes keys one batch at a time. A failed request stops the run
// and names the batch; keys the store refuses individually are collected in
// the result. Keys that no longer exist count as deleted.
func (b *BatchDeleter) Delete(ctx context.Context, bucket string, keys []string) (*s3types.DeleteResult, error) {
	result := &s3types.DeleteResult{Requested: len(keys)}

	batches := Batches(keys, b.maxBatchSize)
	for i, batch := range batches {
		failed, err := b.deleteBatch(ctx, bucket, batch)
		if err != nil {
			return result, errors.NewTransferError("deleteObjects", bucket, batch[0], err).
				WithMessage(fmt.Sprintf("batch %d/%d (%d keys)", i+1, len(batches), len(batch)))
		}
		result.Batches++
		result.Failed = append(result.Failed, failed...)
	}

	for _, f := range result.Failed {
		b.logger.Warn("object not deleted",
			"bucket", bucket,
			"key", f.Key,
			"code", f.Code,
			"message", f.Message,
		)
	}
	b.logger.Debug("objects deleted",
		"bucket", bucket,
		"requested", result.Requested,
		"batches", result.Batches,
		"failed", len(result.Failed),
	)
	return result, nil
}

func (b *BatchDeleter) deleteBatch(ctx context.Context, bucket string, keys []string) ([]s3types.DeleteError, error) {
	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	output, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return nil, err
	}

	var failed []s3types.DeleteError
	for _, e := range output.Errors {
		if aws.ToString(e.Code) == "NoSuchKey" {
			continue
		}
		failed = append(failed, s3types.DeleteError{
			Key:     aws.ToString(e.Key),
			Code:    aws.ToString(e.Code),
			Message: aws.ToString(e.Message),
		})
	}
	return failed, nil
}
