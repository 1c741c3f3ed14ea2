package planner

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

const mib = s3types.MiB

func TestPlan_Scenarios(t *testing.T) {
	tests := []struct {
		name          string
		fileSize      int64
		chunk         int64
		wantMode      s3types.TransferMode
		wantChunk     int64
		wantParts     int
		wantAdjusted  bool
		wantTooLarge  bool
		wantAdjustMiB int64
	}{
		{
			name:      "empty file without chunking",
			fileSize:  0,
			chunk:     0,
			wantMode:  s3types.ModeSingleShot,
			wantChunk: 0,
			wantParts: 1,
		},
		{
			name:      "file equal to chunk size stays single shot",
			fileSize:  5 * mib,
			chunk:     5 * mib,
			wantMode:  s3types.ModeSingleShot,
			wantChunk: 5 * mib,
			wantParts: 1,
		},
		{
			name:      "six MiB at five MiB chunks",
			fileSize:  6 * mib,
			chunk:     5 * mib,
			wantMode:  s3types.ModeMultipart,
			wantChunk: 5 * mib,
			wantParts: 2,
		},
		{
			name:      "exactly ten thousand parts",
			fileSize:  50000 * mib,
			chunk:     5 * mib,
			wantMode:  s3types.ModeMultipart,
			wantChunk: 5 * mib,
			wantParts: 10000,
		},
		{
			name:          "one part over the limit is adjusted",
			fileSize:      50001 * mib,
			chunk:         5 * mib,
			wantMode:      s3types.ModeMultipart,
			wantChunk:     6 * mib,
			wantParts:     8334,
			wantAdjusted:  true,
			wantAdjustMiB: 6,
		},
		{
			name:         "single shot above five GiB",
			fileSize:     5*s3types.GiB + 1,
			chunk:        0,
			wantTooLarge: true,
		},
		{
			name:      "single shot at exactly five GiB",
			fileSize:  5 * s3types.GiB,
			chunk:     0,
			wantMode:  s3types.ModeSingleShot,
			wantParts: 1,
		},
		{
			name:         "multipart above five TiB",
			fileSize:     5*s3types.TiB + 1,
			chunk:        5 * mib,
			wantTooLarge: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Plan(tt.fileSize, tt.chunk)
			if tt.wantTooLarge {
				require.Error(t, err)
				assert.True(t, errors.IsObjectTooLarge(err))
				var tooLarge *errors.ObjectTooLargeError
				require.ErrorAs(t, err, &tooLarge)
				assert.Equal(t, tt.fileSize, tooLarge.Size)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, plan.Mode)
			assert.Equal(t, tt.wantChunk, plan.EffectiveChunkBytes)
			assert.Equal(t, tt.wantParts, plan.TotalParts)

			if tt.wantAdjusted {
				require.NotNil(t, plan.Adjustment)
				assert.Equal(t, tt.chunk/mib, plan.Adjustment.OriginalMiB)
				assert.Equal(t, tt.wantAdjustMiB, plan.Adjustment.AdjustedMiB)
				assert.Equal(t, tt.wantAdjustMiB*10000*mib, plan.Adjustment.SuggestedSplitBytes)
			} else {
				assert.Nil(t, plan.Adjustment)
			}
		})
	}
}

func TestPlan_AdjustedChunkIsSmallestWholeMiB(t *testing.T) {
	plan, err := Plan(50001*mib, 5*mib)
	require.NoError(t, err)

	smaller := plan.EffectiveChunkBytes - mib
	parts := (plan.FileSize + smaller - 1) / smaller
	assert.Greater(t, parts, int64(s3types.MaxParts))
}

func TestPlan_FractionalChunkAdjustment(t *testing.T) {
	// 1.5 MiB would need 13,334 parts; one MiB step gives 2.5 MiB and 8000 parts
	plan, err := Plan(20_000*mib, 3*mib/2)
	require.NoError(t, err)

	assert.Equal(t, 5*mib/2, plan.EffectiveChunkBytes)
	assert.Equal(t, 8000, plan.TotalParts)
	require.NotNil(t, plan.Adjustment)
	assert.Equal(t, int64(1), plan.Adjustment.OriginalMiB)
	assert.Equal(t, int64(2), plan.Adjustment.AdjustedMiB)
	assert.Equal(t, 25_000*mib, plan.Adjustment.SuggestedSplitBytes)
}

func TestPlan_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		chunk := (rng.Int63n(64) + 1) * mib
		if i%3 == 0 {
			chunk += rng.Int63n(mib)
		}
		fileSize := chunk + 1 + rng.Int63n(s3types.MaxMultipartObjectBytes-chunk)

		plan, err := Plan(fileSize, chunk)
		require.NoError(t, err, "file %d chunk %d", fileSize, chunk)

		assert.Equal(t, s3types.ModeMultipart, plan.Mode)
		assert.LessOrEqual(t, plan.TotalParts, s3types.MaxParts)
		assert.GreaterOrEqual(t, plan.EffectiveChunkBytes, chunk)
		assert.Zero(t, (plan.EffectiveChunkBytes-chunk)%mib, "growth must be whole MiB")
		assert.Equal(t, int((fileSize+plan.EffectiveChunkBytes-1)/plan.EffectiveChunkBytes), plan.TotalParts)
		if plan.Adjustment != nil {
			assert.Equal(t, plan.EffectiveChunkBytes*s3types.MaxParts, plan.Adjustment.SuggestedSplitBytes)
		}
	}
}

func TestPlan_PartSizes(t *testing.T) {
	plan, err := Plan(6*mib, 5*mib)
	require.NoError(t, err)

	assert.Equal(t, 5*mib, plan.PartSize(1))
	assert.Equal(t, 1*mib, plan.PartSize(2))
}

func TestPlan_NegativeInput(t *testing.T) {
	_, err := Plan(-1, 0)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = Plan(10, -5)
	assert.True(t, errors.IsInvalidInput(err))
}
