// Package planner decides how a file is transferred.
//
// Plan is a pure function: it chooses between a single PUT and a multipart
// upload, and for multipart uploads enlarges the chunk size in whole-MiB steps
// until the part count fits within the store's limit. Chunk sizes are only
// ever enlarged, never shrunk.
package planner

import (
	"fmt"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// Plan computes the chunk plan for a file of fileSize bytes given the requested
// chunk size. A requested size of 0 means the file is never split.
func Plan(fileSize, requestedChunkBytes int64) (s3types.ChunkPlan, error) {
	if fileSize < 0 || requestedChunkBytes < 0 {
		return s3types.ChunkPlan{}, errors.NewInvalidInputError("plan",
			fmt.Sprintf("sizes must not be negative (file %d, chunk %d)", fileSize, requestedChunkBytes))
	}

	plan := s3types.ChunkPlan{
		FileSize:            fileSize,
		RequestedChunkBytes: requestedChunkBytes,
		EffectiveChunkBytes: requestedChunkBytes,
	}

	if requestedChunkBytes == 0 || fileSize <= requestedChunkBytes {
		if fileSize > s3types.MaxSingleObjectBytes {
			return s3types.ChunkPlan{}, &errors.ObjectTooLargeError{
				Size:  fileSize,
				Limit: s3types.MaxSingleObjectBytes,
				Mode:  s3types.ModeSingleShot.String(),
			}
		}
		plan.Mode = s3types.ModeSingleShot
		plan.TotalParts = 1
		return plan, nil
	}

	if fileSize > s3types.MaxMultipartObjectBytes {
		return s3types.ChunkPlan{}, &errors.ObjectTooLargeError{
			Size:  fileSize,
			Limit: s3types.MaxMultipartObjectBytes,
			Mode:  s3types.ModeMultipart.String(),
		}
	}

	plan.Mode = s3types.ModeMultipart
	plan.EffectiveChunkBytes = adjustedChunkBytes(fileSize, requestedChunkBytes)
	plan.TotalParts = int(ceilDiv(fileSize, plan.EffectiveChunkBytes))

	if plan.EffectiveChunkBytes != requestedChunkBytes {
		plan.Adjustment = &s3types.ChunkSizeAdjusted{
			OriginalMiB:         requestedChunkBytes / s3types.MiB,
			AdjustedMiB:         plan.EffectiveChunkBytes / s3types.MiB,
			SuggestedSplitBytes: plan.EffectiveChunkBytes * s3types.MaxParts,
		}
	}

	return plan, nil
}

// adjustedChunkBytes returns the smallest requested + k*MiB (k >= 0) that keeps
// the part count within MaxParts.
func adjustedChunkBytes(fileSize, requested int64) int64 {
	if ceilDiv(fileSize, requested) <= s3types.MaxParts {
		return requested
	}

	minimum := ceilDiv(fileSize, s3types.MaxParts)
	steps := ceilDiv(minimum-requested, s3types.MiB)
	chunk := requested + steps*s3types.MiB

	// chunk >= minimum already holds; the loop keeps the invariant explicit
	for ceilDiv(fileSize, chunk) > s3types.MaxParts {
		chunk += s3types.MiB
	}
	return chunk
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
