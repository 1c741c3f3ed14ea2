package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3errors "github.com/input-output-hk/catalyst-forge-libs/s3transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/checksum"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/planner"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/s3types"
)

func singleShot(t *testing.T, size int64) s3types.ChunkPlan {
	t.Helper()
	plan, err := planner.Plan(size, 0)
	require.NoError(t, err)
	return plan
}

func TestUploader_Upload_SingleShot(t *testing.T) {
	content := []byte("Hello, World!")

	tests := []struct {
		name        string
		config      *s3types.UploadConfig
		mockFunc    func(*testing.T, *testutil.MockS3Client)
		wantErr     bool
		errContains string
	}{
		{
			name:   "successful small upload",
			config: &s3types.UploadConfig{ContentType: "text/plain"},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					assert.Equal(t, "test-bucket", aws.ToString(input.Bucket))
					assert.Equal(t, "test-key", aws.ToString(input.Key))
					assert.Equal(t, "text/plain", aws.ToString(input.ContentType))
					assert.Equal(t, int64(len(content)), aws.ToInt64(input.ContentLength))
					assert.Equal(t, awstypes.ChecksumAlgorithmSha256, input.ChecksumAlgorithm)
					assert.Equal(t, checksum.Bytes(content), aws.ToString(input.ChecksumSHA256))

					body, err := io.ReadAll(input.Body)
					require.NoError(t, err)
					assert.Equal(t, content, body)

					return &s3.PutObjectOutput{ETag: aws.String("test-etag")}, nil
				}
			},
		},
		{
			name: "storage class and SSE-S3",
			config: &s3types.UploadConfig{
				ContentType:  "text/plain",
				StorageClass: s3types.StorageClassStandardIA,
				SSE:          s3types.SSES3,
			},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					assert.Equal(t, awstypes.StorageClassStandardIa, input.StorageClass)
					assert.Equal(t, awstypes.ServerSideEncryptionAes256, input.ServerSideEncryption)
					return &s3.PutObjectOutput{ETag: aws.String("test-etag")}, nil
				}
			},
		},
		{
			name:   "SSE-KMS",
			config: &s3types.UploadConfig{ContentType: "text/plain", SSE: s3types.SSEKMS},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					assert.Equal(t, awstypes.ServerSideEncryptionAwsKms, input.ServerSideEncryption)
					assert.Nil(t, input.SSEKMSKeyId)
					return &s3.PutObjectOutput{ETag: aws.String("test-etag")}, nil
				}
			},
		},
		{
			name:   "detected content type",
			config: &s3types.UploadConfig{},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					assert.Contains(t, aws.ToString(input.ContentType), "text/plain")
					return &s3.PutObjectOutput{ETag: aws.String("test-etag")}, nil
				}
			},
		},
		{
			name:   "store failure",
			config: &s3types.UploadConfig{ContentType: "text/plain"},
			mockFunc: func(t *testing.T, m *testutil.MockS3Client) {
				m.PutObjectFunc = func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
					return nil, errors.New("connection reset")
				}
			},
			wantErr:     true,
			errContains: "connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockS3Client{}
			tt.mockFunc(t, mock)

			result, err := New(mock, nil).Upload(context.Background(), Request{
				Bucket: "test-bucket",
				Key:    "test-key",
				File:   bytes.NewReader(content),
				Plan:   singleShot(t, int64(len(content))),
				Config: tt.config,
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, s3errors.IsTransferError(err))
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Contains(t, err.Error(), "test-bucket/test-key")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test-key", result.Key)
			assert.Equal(t, int64(len(content)), result.Size)
			assert.Equal(t, checksum.Bytes(content), result.Checksum)
			assert.Equal(t, "test-etag", result.ETag)
			assert.Empty(t, result.Parts)
		})
	}
}

func TestUploader_Upload_EmptyFile(t *testing.T) {
	fake := testutil.NewFakeS3()

	result, err := New(fake, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "empty",
		File:   bytes.NewReader(nil),
		Plan:   singleShot(t, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.Size)

	obj, ok := fake.Object("empty")
	require.True(t, ok)
	assert.Empty(t, obj.Data)
	assert.Equal(t, DefaultContentType, obj.ContentType)
}

func TestUploader_Upload_ShortFile(t *testing.T) {
	mock := &testutil.MockS3Client{}

	_, err := New(mock, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "truncated",
		File:   bytes.NewReader([]byte("abc")),
		Plan:   singleShot(t, 10),
		Config: &s3types.UploadConfig{ContentType: "text/plain"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short read")
}

func TestUploader_Upload_DispatchesMultipart(t *testing.T) {
	fake := testutil.NewFakeS3()
	data := testutil.PatternData(int(12 * s3types.MiB))

	plan, err := planner.Plan(int64(len(data)), 5*s3types.MiB)
	require.NoError(t, err)
	require.Equal(t, s3types.ModeMultipart, plan.Mode)

	result, err := New(fake, nil).Upload(context.Background(), Request{
		Bucket: "test-bucket",
		Key:    "big.tar",
		File:   bytes.NewReader(data),
		Plan:   plan,
		Config: &s3types.UploadConfig{AbortOnFailure: true},
	})
	require.NoError(t, err)
	assert.Len(t, result.Parts, 3)
	assert.Zero(t, fake.Calls(testutil.OpPutObject))
	assert.Equal(t, 3, fake.Calls(testutil.OpUploadPart))

	obj, ok := fake.Object("big.tar")
	require.True(t, ok)
	assert.Equal(t, data, obj.Data)
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fileName string
		want     string
	}{
		{name: "empty", data: nil, want: DefaultContentType},
		{name: "gzip", data: []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}, want: "application/gzip"},
		{name: "json", data: []byte(`{"a": 1}`), want: "application/json"},
		{name: "content wins over extension", data: []byte(`{"a": 1}`), fileName: "data.bin", want: "application/json"},
		{name: "extension fallback", data: []byte{0x00, 0x01, 0x02, 0xff}, fileName: "page.html", want: "text/html; charset=utf-8"},
		{name: "unknown binary", data: []byte{0x00, 0x01, 0x02, 0xff}, fileName: "blob", want: DefaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectContentType(bytes.NewReader(tt.data), int64(len(tt.data)), tt.fileName)
			assert.Equal(t, tt.want, got)
		})
	}
}
