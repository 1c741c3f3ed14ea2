package multipart

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3errors "github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

// smallPlan builds a multipart plan with tiny chunks so tests stay fast.
func smallPlan(size, chunk int64) s3types.ChunkPlan {
	return s3types.ChunkPlan{
		Mode:                s3types.ModeMultipart,
		FileSize:            size,
		RequestedChunkBytes: chunk,
		EffectiveChunkBytes: chunk,
		TotalParts:          int((size + chunk - 1) / chunk),
	}
}

func TestUploader_Upload_Sequential(t *testing.T) {
	fake := testutil.NewFakeS3()
	rec := &testutil.ProgressRecorder{}
	data := testutil.PatternData(1000)

	result, err := NewUploader(fake, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "archive.tar",
		File:   bytes.NewReader(data),
		Plan:   smallPlan(1000, 10),
		Config: &s3types.UploadConfig{
			ContentType:    "application/x-tar",
			AbortOnFailure: true,
			Progress:       rec.Progress,
		},
	})
	require.NoError(t, err)

	require.Len(t, result.Parts, 100)
	for i, p := range result.Parts {
		assert.Equal(t, int32(i+1), p.PartNumber)
		assert.Equal(t, checksum.Bytes(data[i*10:(i+1)*10]), p.Checksum)
		assert.NotEmpty(t, p.ETag)
	}
	assert.Equal(t, int64(1000), result.Size)

	// strictly sequential part order
	order := fake.PartOrder()
	for i, n := range order {
		assert.Equal(t, int32(i+1), n)
	}

	assert.Equal(t, []int{10, 20, 30, 40, 50, 60, 70, 80, 90}, rec.Percents())
	for _, ev := range rec.Events() {
		assert.Equal(t, "archive.tar", ev.Key)
		assert.Equal(t, 100, ev.TotalParts)
		assert.Equal(t, ev.Percent, ev.Completed)
	}

	obj, ok := fake.Object("archive.tar")
	require.True(t, ok)
	assert.Equal(t, data, obj.Data)
	assert.Equal(t, "application/x-tar", obj.ContentType)
	assert.Zero(t, fake.OpenUploads())
}

func TestUploader_Upload_LastPartShort(t *testing.T) {
	fake := testutil.NewFakeS3()
	data := testutil.PatternData(25)

	result, err := NewUploader(fake, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "k",
		File:   bytes.NewReader(data),
		Plan:   smallPlan(25, 10),
		Config: &s3types.UploadConfig{},
	})
	require.NoError(t, err)
	require.Len(t, result.Parts, 3)
	assert.Equal(t, checksum.Bytes(data[20:]), result.Parts[2].Checksum)
}

func TestUploader_Upload_Concurrent(t *testing.T) {
	fake := testutil.NewFakeS3()
	rec := &testutil.ProgressRecorder{}
	data := testutil.GenerateRandomData(4096)

	result, err := NewUploader(fake, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "k",
		File:   bytes.NewReader(data),
		Plan:   smallPlan(4096, 64),
		Config: &s3types.UploadConfig{PartConcurrency: 8, Progress: rec.Progress},
	})
	require.NoError(t, err)

	require.Len(t, result.Parts, 64)
	for i, p := range result.Parts {
		assert.Equal(t, int32(i+1), p.PartNumber)
	}
	assert.Len(t, rec.Events(), 9)

	obj, ok := fake.Object("k")
	require.True(t, ok)
	assert.Equal(t, data, obj.Data)
}

func TestUploader_Upload_PartFailure(t *testing.T) {
	tests := []struct {
		name        string
		abort       bool
		concurrency int
		wantAborts  int
		wantOpen    int
	}{
		{name: "sequential with abort", abort: true, concurrency: 1, wantAborts: 1},
		{name: "sequential without abort", abort: false, concurrency: 1, wantOpen: 1},
		{name: "concurrent with abort", abort: true, concurrency: 4, wantAborts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeS3()
			fake.FailPart(3, errors.New("connection reset"))

			_, err := NewUploader(fake, nil).Upload(context.Background(), Request{
				Bucket: "test-bucket",
				Key:    "k",
				File:   bytes.NewReader(testutil.PatternData(100)),
				Plan:   smallPlan(100, 10),
				Config: &s3types.UploadConfig{AbortOnFailure: tt.abort, PartConcurrency: tt.concurrency},
			})
			require.Error(t, err)
			assert.True(t, s3errors.IsTransferError(err))
			assert.Contains(t, err.Error(), "connection reset")
			assert.Contains(t, err.Error(), "part 3/10")

			assert.Equal(t, tt.wantAborts, fake.Calls(testutil.OpAbortMultipartUpload))
			assert.Equal(t, tt.wantOpen, fake.OpenUploads())
			assert.Zero(t, fake.Calls(testutil.OpCompleteMultipartUpload))
			_, ok := fake.Object("k")
			assert.False(t, ok)
		})
	}
}

func TestUploader_Upload_CreateFailure(t *testing.T) {
	fake := testutil.NewFakeS3()
	fake.FailOn(testutil.OpCreateMultipartUpload, errors.New("access denied"))

	_, err := NewUploader(fake, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "k",
		File:   bytes.NewReader(testutil.PatternData(100)),
		Plan:   smallPlan(100, 10),
		Config: &s3types.UploadConfig{AbortOnFailure: true},
	})
	require.Error(t, err)
	assert.True(t, s3errors.IsTransferError(err))
	assert.Zero(t, fake.Calls(testutil.OpUploadPart))
	assert.Zero(t, fake.Calls(testutil.OpAbortMultipartUpload))
}

func TestUploader_Upload_CompleteFailureAborts(t *testing.T) {
	fake := testutil.NewFakeS3()
	fake.FailOn(testutil.OpCompleteMultipartUpload, errors.New("internal error"))

	_, err := NewUploader(fake, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "k",
		File:   bytes.NewReader(testutil.PatternData(30)),
		Plan:   smallPlan(30, 10),
		Config: &s3types.UploadConfig{AbortOnFailure: true},
	})
	require.Error(t, err)
	assert.True(t, s3errors.IsTransferError(err))
	assert.Equal(t, 1, fake.Calls(testutil.OpAbortMultipartUpload))
	assert.Zero(t, fake.OpenUploads())
}

func TestUploader_Upload_MissingPartTag(t *testing.T) {
	var aborted atomic.Bool
	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: func(ctx context.Context, in *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			assert.Equal(t, awstypes.ChecksumAlgorithmSha256, in.ChecksumAlgorithm)
			return &s3.CreateMultipartUploadOutput{UploadId: aws.String("u-1")}, nil
		},
		UploadPartFunc: func(ctx context.Context, in *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			if aws.ToInt32(in.PartNumber) == 2 {
				return &s3.UploadPartOutput{}, nil
			}
			return &s3.UploadPartOutput{ETag: aws.String("etag")}, nil
		},
		CompleteMultipartUploadFunc: func(ctx context.Context, in *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
			t.Fatal("completion must not be attempted with a missing part tag")
			return nil, nil
		},
		AbortMultipartUploadFunc: func(ctx context.Context, in *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			assert.Equal(t, "u-1", aws.ToString(in.UploadId))
			aborted.Store(true)
			return &s3.AbortMultipartUploadOutput{}, nil
		},
	}

	_, err := NewUploader(mock, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "k",
		File:   bytes.NewReader(testutil.PatternData(30)),
		Plan:   smallPlan(30, 10),
		Config: &s3types.UploadConfig{AbortOnFailure: true},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, s3errors.ErrIncompleteUpload)
	assert.True(t, s3errors.IsTransferError(err))
	assert.True(t, aborted.Load())
}

func TestUploader_Upload_AbortSurvivesCancellation(t *testing.T) {
	fake := testutil.NewFakeS3()
	ctx, cancel := context.WithCancel(context.Background())
	fake.FailPart(2, context.Canceled)

	mock := &testutil.MockS3Client{
		CreateMultipartUploadFunc: fake.CreateMultipartUpload,
		UploadPartFunc: func(c context.Context, in *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			if aws.ToInt32(in.PartNumber) == 2 {
				cancel()
			}
			return fake.UploadPart(c, in, opts...)
		},
		AbortMultipartUploadFunc: func(c context.Context, in *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			assert.NoError(t, c.Err())
			return fake.AbortMultipartUpload(c, in, opts...)
		},
	}

	_, err := NewUploader(mock, nil).Upload(ctx, Request{
		Bucket: "test-bucket",
		Key:    "k",
		File:   bytes.NewReader(testutil.PatternData(30)),
		Plan:   smallPlan(30, 10),
		Config: &s3types.UploadConfig{AbortOnFailure: true},
	})
	require.Error(t, err)
	assert.Zero(t, fake.OpenUploads())
}

func TestUploader_Upload_RejectsSingleShotPlan(t *testing.T) {
	_, err := NewUploader(testutil.NewFakeS3(), nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "k",
		File:   bytes.NewReader(nil),
		Plan:   s3types.ChunkPlan{Mode: s3types.ModeSingleShot, TotalParts: 1},
		Config: &s3types.UploadConfig{},
	})
	assert.True(t, s3errors.IsInvalidInput(err))
}
