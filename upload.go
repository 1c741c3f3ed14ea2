package s3transfer

import (
	"context"
	stderrors "errors"
	"fmt"

	units "github.com/docker/go-units"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// Upload transfers the local file at localPath to remoteKey in the target
// bucket. Files no larger than the target's chunk size, or any file when the
// chunk size is 0, go in one request; larger files are uploaded in parts.
//
// Errors:
//   - *errors.ObjectTooLargeError: the file exceeds a hard size ceiling; nothing was sent
//   - transfer errors (errors.IsTransferError): a request against the store failed
//   - invalid input (errors.IsInvalidInput): bad key, or the local file cannot be read
//
// Example:
//
//	result, err := client.Upload(ctx, "/var/backups/db.tar", "servers/db/db.tar")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Uploaded %s in %d parts\n", result.Key, result.Plan.TotalParts)
func (c *Client) Upload(ctx context.Context, localPath, remoteKey string) (*s3types.UploadResult, error) {
	if err := validation.ObjectKey(remoteKey); err != nil {
		return nil, err
	}

	resolved, err := c.resolvePath(localPath)
	if err != nil {
		return nil, localFileError(remoteKey, fmt.Errorf("resolve %s: %w", localPath, err))
	}
	localPath = resolved

	info, err := c.fs.Stat(localPath)
	if err != nil {
		return nil, localFileError(remoteKey, fmt.Errorf("stat %s: %w", localPath, err))
	}
	if info.IsDir() {
		return nil, errors.NewInvalidInputError("upload", localPath+" is a directory").
			WithBucket(c.target.Bucket).WithKey(remoteKey)
	}

	plan, err := c.Plan(info.Size())
	if err != nil {
		var tooLarge *errors.ObjectTooLargeError
		if stderrors.As(err, &tooLarge) {
			tooLarge.Key = remoteKey
			c.logger.Error("object too large", "key", remoteKey, "error", tooLarge)
		}
		return nil, err
	}
	if plan.Adjustment != nil {
		warning := *plan.Adjustment
		warning.Key = remoteKey
		c.logger.Warn(warning.String(), "key", remoteKey)
		if c.cfg.Warning != nil {
			c.cfg.Warning(warning)
		}
	}

	file, err := c.fs.Open(localPath)
	if err != nil {
		return nil, localFileError(remoteKey, fmt.Errorf("open %s: %w", localPath, err))
	}
	defer file.Close()

	c.logger.Debug("upload planned",
		"key", remoteKey,
		"mode", plan.Mode.String(),
		"size", units.BytesSize(float64(plan.FileSize)),
		"parts", plan.TotalParts,
	)

	result, err := c.uploader.Upload(ctx, upload.Request{
		Bucket: c.target.Bucket,
		Key:    remoteKey,
		File:   file,
		Name:   localPath,
		Plan:   plan,
		Config: c.uploadConfig(),
	})
	if err != nil {
		c.logger.Error("upload failed", "key", remoteKey, "error", err)
		return nil, err
	}
	return result, nil
}

// Plan returns the chunk plan an upload of fileSize bytes would follow
// under the target's chunk size.
func (c *Client) Plan(fileSize int64) (s3types.ChunkPlan, error) {
	return planner.Plan(fileSize, c.target.ChunkBytes())
}

func localFileError(key string, err error) error {
	return &errors.Error{
		Op:   "upload",
		Key:  key,
		Code: errors.CodeInvalidInput,
		Err:  err,
	}
}
