package upload

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	units "github.com/docker/go-units"
	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// DefaultContentType is used when the content type cannot be detected.
const DefaultContentType = "application/octet-stream"

// Request describes one file upload.
type Request struct {
	Bucket string
	Key    string

	// File holds the content; it is read through ReadAt only
	File io.ReaderAt

	// Name is the local file name, used to guess the content type by extension
	Name string

	Plan   s3types.ChunkPlan
	Config *s3types.UploadConfig
}

// Uploader dispatches uploads on their chunk plan.
type Uploader struct {
	s3Client  s3api.S3API
	logger    *slog.Logger
	multipart *multipart.Uploader
}

// New creates a new Uploader instance.
func New(s3Client s3api.S3API, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Uploader{
		s3Client:  s3Client,
		logger:    logger,
		multipart: multipart.NewUploader(s3Client, logger),
	}
}

// Upload sends the file with a single request or as a multipart upload,
// as the plan says.
func (u *Uploader) Upload(ctx context.Context, req Request) (*s3types.UploadResult, error) {
	if req.Config == nil {
		req.Config = &s3types.UploadConfig{}
	}
	if req.Config.ContentType == "" {
		cfg := *req.Config
		cfg.ContentType = DetectContentType(req.File, req.Plan.FileSize, req.Name)
		req.Config = &cfg
	}

	if req.Plan.Mode == s3types.ModeMultipart {
		return u.multipart.Upload(ctx, multipart.Request{
			Bucket: req.Bucket,
			Key:    req.Key,
			File:   req.File,
			Plan:   req.Plan,
			Config: req.Config,
		})
	}
	return u.uploadSingle(ctx, req)
}

// uploadSingle performs a single PutObject carrying the SHA-256 of the whole file.
func (u *Uploader) uploadSingle(ctx context.Context, req Request) (*s3types.UploadResult, error) {
	startTime := time.Now()
	size := req.Plan.FileSize

	sum, err := checksum.Section(req.File, 0, size)
	if err != nil {
		return nil, errors.NewTransferError("putObject", req.Bucket, req.Key, err)
	}

	input := &s3.PutObjectInput{
		Bucket:            aws.String(req.Bucket),
		Key:               aws.String(req.Key),
		Body:              io.NewSectionReader(req.File, 0, size),
		ContentLength:     aws.Int64(size),
		ContentType:       aws.String(req.Config.ContentType),
		ChecksumAlgorithm: awstypes.ChecksumAlgorithmSha256,
		ChecksumSHA256:    aws.String(sum),
	}
	if req.Config.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(req.Config.StorageClass)
	}
	if req.Config.SSE != "" {
		input.ServerSideEncryption = awstypes.ServerSideEncryption(req.Config.SSE)
	}

	output, err := u.s3Client.PutObject(ctx, input)
	if err != nil {
		return nil, errors.NewTransferError("putObject", req.Bucket, req.Key, err).
			WithMessage(units.BytesSize(float64(size)) + " single-shot upload")
	}

	u.logger.Info("object uploaded",
		"bucket", req.Bucket,
		"key", req.Key,
		"size", units.BytesSize(float64(size)),
		"content_type", req.Config.ContentType,
	)

	return &s3types.UploadResult{
		Key:      req.Key,
		Size:     size,
		Plan:     req.Plan,
		Checksum: sum,
		ETag:     aws.ToString(output.ETag),
		Duration: time.Since(startTime),
	}, nil
}

// DetectContentType sniffs the head of the file. When the content says
// nothing more specific than binary data, the extension of name is consulted
// before falling back to DefaultContentType.
func DetectContentType(r io.ReaderAt, size int64, name string) string {
	if size > 0 {
		mtype, err := mimetype.DetectReader(io.NewSectionReader(r, 0, size))
		if err == nil && mtype != nil && !mtype.Is(DefaultContentType) {
			return mtype.String()
		}
	}
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
