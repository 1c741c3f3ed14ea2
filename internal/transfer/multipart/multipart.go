package multipart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	units "github.com/docker/go-units"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/progress"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// Request describes one multipart upload.
type Request struct {
	Bucket string
	Key    string

	// File is read in windows of Plan.EffectiveChunkBytes
	File io.ReaderAt

	Plan   s3types.ChunkPlan
	Config *s3types.UploadConfig
}

// Uploader handles multipart upload operations.
type Uploader struct {
	s3Client s3api.S3API
	logger   *slog.Logger
}

// NewUploader creates a new multipart uploader.
func NewUploader(s3Client s3api.S3API, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		s3Client: s3Client,
		logger:   logger,
	}
}

// Upload initiates the upload, sends every part and completes it.
// On failure the upload is aborted when the config asks for it; the original
// error is returned either way.
func (u *Uploader) Upload(ctx context.Context, req Request) (*s3types.UploadResult, error) {
	if req.Plan.Mode != s3types.ModeMultipart || req.Plan.TotalParts < 1 {
		return nil, errors.NewInvalidInputError("multipartUpload",
			fmt.Sprintf("plan is not a multipart plan (%s, %d parts)", req.Plan.Mode, req.Plan.TotalParts)).
			WithBucket(req.Bucket).WithKey(req.Key)
	}

	startTime := time.Now()

	uploadID, err := u.create(ctx, req)
	if err != nil {
		return nil, err
	}

	logger := u.logger.With(
		"bucket", req.Bucket,
		"key", req.Key,
		"upload_id", uploadID,
		"parts", req.Plan.TotalParts,
		"chunk", units.BytesSize(float64(req.Plan.EffectiveChunkBytes)),
	)
	logger.Info("multipart upload started", "size", units.BytesSize(float64(req.Plan.FileSize)))

	parts, err := u.uploadParts(ctx, req, uploadID, logger)
	if err == nil {
		err = verifyParts(req, uploadID, parts)
	}
	if err != nil {
		u.abort(ctx, req, uploadID, logger)
		return nil, err
	}

	etag, err := u.complete(ctx, req, uploadID, parts)
	if err != nil {
		u.abort(ctx, req, uploadID, logger)
		return nil, err
	}

	logger.Info("multipart upload completed", "duration", time.Since(startTime))

	return &s3types.UploadResult{
		Key:      req.Key,
		Size:     req.Plan.FileSize,
		Plan:     req.Plan,
		ETag:     etag,
		Parts:    parts,
		Duration: time.Since(startTime),
	}, nil
}

func (u *Uploader) create(ctx context.Context, req Request) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket:            aws.String(req.Bucket),
		Key:               aws.String(req.Key),
		ChecksumAlgorithm: awstypes.ChecksumAlgorithmSha256,
	}
	if req.Config.ContentType != "" {
		input.ContentType = aws.String(req.Config.ContentType)
	}
	if req.Config.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(req.Config.StorageClass)
	}
	if req.Config.SSE != "" {
		input.ServerSideEncryption = awstypes.ServerSideEncryption(req.Config.SSE)
	}

	output, err := u.s3Client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", errors.NewTransferError("createMultipartUpload", req.Bucket, req.Key, err)
	}
	uploadID := aws.ToString(output.UploadId)
	if uploadID == "" {
		return "", errors.NewTransferError("createMultipartUpload", req.Bucket, req.Key,
			fmt.Errorf("store returned no upload id"))
	}
	return uploadID, nil
}

// uploadParts sends parts 1..TotalParts. With a concurrency of one the parts
// go strictly in order; otherwise up to that many are in flight. Results are
// slotted by part number either way.
func (u *Uploader) uploadParts(
	ctx context.Context,
	req Request,
	uploadID string,
	logger *slog.Logger,
) ([]s3types.UploadPart, error) {
	total := req.Plan.TotalParts
	parts := make([]s3types.UploadPart, total)
	tracker := progress.NewTracker(total)
	var completed atomic.Int64

	send := func(ctx context.Context, n int) error {
		part, err := u.uploadPart(ctx, req, uploadID, n)
		if err != nil {
			return err
		}
		parts[n-1] = part
		done := int(completed.Add(1))
		if pct, ok := tracker.Complete(done); ok {
			logger.Info("multipart upload progress", "percent", pct, "completed", done)
			if req.Config.Progress != nil {
				req.Config.Progress(s3types.ProgressEvent{
					Key:        req.Key,
					Percent:    pct,
					Completed:  done,
					TotalParts: total,
				})
			}
		}
		return nil
	}

	concurrency := req.Config.PartConcurrency
	if concurrency <= 1 {
		for n := 1; n <= total; n++ {
			if err := send(ctx, n); err != nil {
				return nil, err
			}
		}
		return parts, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for n := 1; n <= total; n++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return send(gctx, n)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.NewTransferError("uploadPart", req.Bucket, req.Key, err)
	}
	return parts, nil
}

func (u *Uploader) uploadPart(ctx context.Context, req Request, uploadID string, n int) (s3types.UploadPart, error) {
	offset := int64(n-1) * req.Plan.EffectiveChunkBytes
	size := req.Plan.PartSize(n)

	failed := func(err error) error {
		return errors.NewTransferError("uploadPart", req.Bucket, req.Key, err).
			WithMessage(fmt.Sprintf("upload %s part %d/%d (offset %d, %d bytes)",
				uploadID, n, req.Plan.TotalParts, offset, size))
	}

	sum, err := checksum.Section(req.File, offset, size)
	if err != nil {
		return s3types.UploadPart{}, failed(err)
	}

	output, err := u.s3Client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:            aws.String(req.Bucket),
		Key:               aws.String(req.Key),
		UploadId:          aws.String(uploadID),
		PartNumber:        aws.Int32(int32(n)),
		Body:              io.NewSectionReader(req.File, offset, size),
		ContentLength:     aws.Int64(size),
		ChecksumAlgorithm: awstypes.ChecksumAlgorithmSha256,
		ChecksumSHA256:    aws.String(sum),
	})
	if err != nil {
		return s3types.UploadPart{}, failed(err)
	}

	u.logger.Debug("part uploaded",
		"key", req.Key,
		"upload_id", uploadID,
		"part", n,
		"size", units.BytesSize(float64(size)),
	)

	return s3types.UploadPart{
		PartNumber: int32(n),
		Checksum:   sum,
		ETag:       aws.ToString(output.ETag),
	}, nil
}

// verifyParts rejects a part list with gaps or missing tags before it is
// sent for completion.
func verifyParts(req Request, uploadID string, parts []s3types.UploadPart) error {
	for i, p := range parts {
		if p.PartNumber != int32(i+1) || p.ETag == "" || p.Checksum == "" {
			return errors.NewTransferError("completeMultipartUpload", req.Bucket, req.Key, errors.ErrIncompleteUpload).
				WithMessage(fmt.Sprintf("upload %s part %d has no tag", uploadID, i+1))
		}
	}
	return nil
}

func (u *Uploader) complete(
	ctx context.Context,
	req Request,
	uploadID string,
	parts []s3types.UploadPart,
) (string, error) {
	completed := make([]awstypes.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = awstypes.CompletedPart{
			PartNumber:     aws.Int32(p.PartNumber),
			ETag:           aws.String(p.ETag),
			ChecksumSHA256: aws.String(p.Checksum),
		}
	}

	output, err := u.s3Client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(req.Bucket),
		Key:             aws.String(req.Key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return "", errors.NewTransferError("completeMultipartUpload", req.Bucket, req.Key, err).
			WithMessage(fmt.Sprintf("upload %s with %d parts", uploadID, len(parts)))
	}
	return aws.ToString(output.ETag), nil
}

// abort discards the upload when configured to. It runs even when ctx is
// already cancelled and only logs its own failure.
func (u *Uploader) abort(ctx context.Context, req Request, uploadID string, logger *slog.Logger) {
	if !req.Config.AbortOnFailure {
		logger.Warn("multipart upload left open after failure")
		return
	}

	_, err := u.s3Client.AbortMultipartUpload(context.WithoutCancel(ctx), &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(req.Bucket),
		Key:      aws.String(req.Key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		logger.Warn("failed to abort multipart upload", "error", err)
		return
	}
	logger.Info("multipart upload aborted")
}
