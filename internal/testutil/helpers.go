package testutil

import (
	"crypto/rand"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
)

// GenerateRandomData generates random data of the specified size.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		panic(fmt.Sprintf("failed to generate random data: %v", err))
	}
	return data
}

// PatternData returns size bytes of a repeating, position-dependent pattern.
// Unlike random data it is cheap to produce for large parts.
func PatternData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// WriteFile writes data to name on fs, creating parent directories.
func WriteFile(t *testing.T, fs billy.Filesystem, name string, data []byte) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, name, data, 0o644))
}

// GenerateTestKey generates a unique test key under prefix.
func GenerateTestKey(prefix string) string {
	suffix := GenerateRandomData(4)
	if prefix == "" {
		return fmt.Sprintf("test-%x", suffix)
	}
	return fmt.Sprintf("%s/test-%x", prefix, suffix)
}

// GenerateTestBucketName generates a unique bucket name.
func GenerateTestBucketName(prefix string) string {
	if prefix == "" {
		prefix = "test-bucket"
	}
	return fmt.Sprintf("%s-%x", prefix, GenerateRandomData(4))
}

// GenerateKeys returns count keys of the form prefix/obj-NNNNN.
func GenerateKeys(prefix string, count int) []string {
	keys := make([]string, count)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s/obj-%05d", prefix, i)
	}
	return keys
}

// CreateTestObject creates a test S3 object listing entry.
func CreateTestObject(key string, size int64, lastModified time.Time) types.Object {
	return types.Object{
		Key:          aws.String(key),
		Size:         aws.Int64(size),
		LastModified: aws.Time(lastModified),
		ETag:         aws.String(fmt.Sprintf("%q", key)),
		StorageClass: types.ObjectStorageClassStandard,
	}
}

// CreateListObjectsV2Output creates a list page holding objects.
func CreateListObjectsV2Output(objects []types.Object, nextToken string) *s3.ListObjectsV2Output {
	out := &s3.ListObjectsV2Output{
		Contents:    objects,
		KeyCount:    aws.Int32(int32(len(objects))),
		IsTruncated: aws.Bool(nextToken != ""),
	}
	if nextToken != "" {
		out.NextContinuationToken = aws.String(nextToken)
	}
	return out
}
