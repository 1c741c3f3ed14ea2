package testutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/s3transfer/internal/s3api"
)

var _ s3api.S3API = (*FakeS3)(nil)

// Operation names used by FakeS3 call counters and failure injection.
const (
	OpPutObject               = "PutObject"
	OpDeleteObjects           = "DeleteObjects"
	OpListObjectsV2           = "ListObjectsV2"
	OpHeadObject              = "HeadObject"
	OpCreateMultipartUpload   = "CreateMultipartUpload"
	OpUploadPart              = "UploadPart"
	OpCompleteMultipartUpload = "CompleteMultipartUpload"
	OpAbortMultipartUpload    = "AbortMultipartUpload"
)

// FakeObject is an object held by FakeS3.
type FakeObject struct {
	Data                 []byte
	ETag                 string
	Checksum             string
	ContentType          string
	StorageClass         types.StorageClass
	ServerSideEncryption types.ServerSideEncryption
	Metadata             map[string]string
}

type fakeUpload struct {
	key    string
	input  *s3.CreateMultipartUploadInput
	parts  map[int32][]byte
	sums   map[int32]string
	etags  map[int32]string
	closed bool
}

// FakeS3 is an in-memory, single-bucket implementation of s3api.S3API.
// It verifies SHA-256 content tags the way the real service does and keeps
// per-operation call counts so tests can assert on request shapes.
type FakeS3 struct {
	// PageSize caps list pages below the requested MaxKeys when positive.
	PageSize int

	mu        sync.Mutex
	objects   map[string]*FakeObject
	uploads   map[string]*fakeUpload
	nextID    int
	calls     map[string]int
	failures  map[string]error
	partFails map[int32]error

	deleteBatches []int
	partOrder     []int32
	listPrefixes  []string
}

// NewFakeS3 returns an empty store.
func NewFakeS3() *FakeS3 {
	return &FakeS3{
		objects:   make(map[string]*FakeObject),
		uploads:   make(map[string]*fakeUpload),
		calls:     make(map[string]int),
		failures:  make(map[string]error),
		partFails: make(map[int32]error),
	}
}

// Put seeds an object directly.
func (f *FakeS3) Put(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = &FakeObject{
		Data:         append([]byte(nil), data...),
		ETag:         etagOf(data),
		Checksum:     sumOf(data),
		StorageClass: types.StorageClassStandard,
	}
}

// Object returns a stored object.
func (f *FakeS3) Object(key string) (*FakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

// Keys returns all stored keys in lexical order.
func (f *FakeS3) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedKeys("")
}

// Calls returns how many times op was invoked.
func (f *FakeS3) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// DeleteBatches returns the size of every DeleteObjects request in order.
func (f *FakeS3) DeleteBatches() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.deleteBatches...)
}

// PartOrder returns part numbers in the order UploadPart received them.
func (f *FakeS3) PartOrder() []int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int32(nil), f.partOrder...)
}

// ListPrefixes returns the prefix of every ListObjectsV2 request.
func (f *FakeS3) ListPrefixes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listPrefixes...)
}

// OpenUploads returns the number of multipart uploads neither completed nor aborted.
func (f *FakeS3) OpenUploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.uploads {
		if !u.closed {
			n++
		}
	}
	return n
}

// FailOn makes every call to op return err. A nil err clears the failure.
func (f *FakeS3) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// FailPart makes UploadPart for the given part number return err.
func (f *FakeS3) FailPart(partNumber int32, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partFails[partNumber] = err
}

// begin counts the call and returns any injected failure. Callers hold f.mu.
func (f *FakeS3) begin(op string) error {
	f.calls[op]++
	return f.failures[op]
}

// PutObject stores the body after verifying its SHA-256 tag.
func (f *FakeS3) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpPutObject); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sum := sumOf(data)
	if want := aws.ToString(params.ChecksumSHA256); want != "" && want != sum {
		return nil, badDigest(want, sum)
	}
	if params.ContentLength != nil && *params.ContentLength != int64(len(data)) {
		return nil, &smithy.GenericAPIError{Code: "IncompleteBody", Message: "content length mismatch"}
	}

	obj := &FakeObject{
		Data:                 data,
		ETag:                 etagOf(data),
		Checksum:             sum,
		ContentType:          aws.ToString(params.ContentType),
		StorageClass:         params.StorageClass,
		ServerSideEncryption: params.ServerSideEncryption,
		Metadata:             params.Metadata,
	}
	if obj.StorageClass == "" {
		obj.StorageClass = types.StorageClassStandard
	}
	f.objects[aws.ToString(params.Key)] = obj

	return &s3.PutObjectOutput{
		ETag:           aws.String(obj.ETag),
		ChecksumSHA256: aws.String(sum),
	}, nil
}

// CreateMultipartUpload opens a new upload.
func (f *FakeS3) CreateMultipartUpload(
	_ context.Context,
	params *s3.CreateMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpCreateMultipartUpload); err != nil {
		return nil, err
	}

	f.nextID++
	id := fmt.Sprintf("upload-%d", f.nextID)
	f.uploads[id] = &fakeUpload{
		key:   aws.ToString(params.Key),
		input: params,
		parts: make(map[int32][]byte),
		sums:  make(map[int32]string),
		etags: make(map[int32]string),
	}

	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String(id),
	}, nil
}

// UploadPart stores one part after verifying its SHA-256 tag.
func (f *FakeS3) UploadPart(
	ctx context.Context,
	params *s3.UploadPartInput,
	_ ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	data, err := readBody(params.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpUploadPart); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	number := aws.ToInt32(params.PartNumber)
	if err := f.partFails[number]; err != nil {
		return nil, err
	}
	u, ok := f.uploads[aws.ToString(params.UploadId)]
	if !ok || u.closed {
		return nil, &types.NoSuchUpload{Message: aws.String("upload does not exist")}
	}
	sum := sumOf(data)
	if want := aws.ToString(params.ChecksumSHA256); want != "" && want != sum {
		return nil, badDigest(want, sum)
	}

	f.partOrder = append(f.partOrder, number)
	u.parts[number] = data
	u.sums[number] = sum
	u.etags[number] = etagOf(data)

	return &s3.UploadPartOutput{
		ETag:           aws.String(u.etags[number]),
		ChecksumSHA256: aws.String(sum),
	}, nil
}

// CompleteMultipartUpload assembles the listed parts into an object.
// Parts must be listed in ascending order with matching ETags.
func (f *FakeS3) CompleteMultipartUpload(
	_ context.Context,
	params *s3.CompleteMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpCompleteMultipartUpload); err != nil {
		return nil, err
	}
	u, ok := f.uploads[aws.ToString(params.UploadId)]
	if !ok || u.closed {
		return nil, &types.NoSuchUpload{Message: aws.String("upload does not exist")}
	}
	if params.MultipartUpload == nil || len(params.MultipartUpload.Parts) == 0 {
		return nil, &smithy.GenericAPIError{Code: "MalformedXML", Message: "no parts"}
	}

	var (
		body    bytes.Buffer
		digests []byte
		prev    int32
	)
	for _, p := range params.MultipartUpload.Parts {
		number := aws.ToInt32(p.PartNumber)
		if number <= prev {
			return nil, &smithy.GenericAPIError{Code: "InvalidPartOrder", Message: "parts must be ascending"}
		}
		prev = number
		data, ok := u.parts[number]
		if !ok || aws.ToString(p.ETag) != u.etags[number] {
			return nil, &smithy.GenericAPIError{Code: "InvalidPart", Message: fmt.Sprintf("part %d not found", number)}
		}
		if want := aws.ToString(p.ChecksumSHA256); want != "" && want != u.sums[number] {
			return nil, badDigest(want, u.sums[number])
		}
		body.Write(data)
		raw, _ := base64.StdEncoding.DecodeString(u.sums[number])
		digests = append(digests, raw...)
	}

	composite := fmt.Sprintf("%s-%d", sumOf(digests), len(params.MultipartUpload.Parts))
	obj := &FakeObject{
		Data:                 body.Bytes(),
		ETag:                 fmt.Sprintf("%q", fmt.Sprintf("%x-%d", sha256.Sum256(digests), len(params.MultipartUpload.Parts))),
		Checksum:             composite,
		ContentType:          aws.ToString(u.input.ContentType),
		StorageClass:         u.input.StorageClass,
		ServerSideEncryption: u.input.ServerSideEncryption,
		Metadata:             u.input.Metadata,
	}
	if obj.StorageClass == "" {
		obj.StorageClass = types.StorageClassStandard
	}
	f.objects[u.key] = obj
	u.closed = true

	return &s3.CompleteMultipartUploadOutput{
		Bucket:         params.Bucket,
		Key:            params.Key,
		ETag:           aws.String(obj.ETag),
		ChecksumSHA256: aws.String(composite),
	}, nil
}

// AbortMultipartUpload discards an open upload.
func (f *FakeS3) AbortMultipartUpload(
	_ context.Context,
	params *s3.AbortMultipartUploadInput,
	_ ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpAbortMultipartUpload); err != nil {
		return nil, err
	}
	u, ok := f.uploads[aws.ToString(params.UploadId)]
	if !ok {
		return nil, &types.NoSuchUpload{Message: aws.String("upload does not exist")}
	}
	u.closed = true
	u.parts = nil
	return &s3.AbortMultipartUploadOutput{}, nil
}

// ListObjectsV2 pages through keys under the requested prefix in lexical
// order. Continuation tokens are the last key of the previous page.
func (f *FakeS3) ListObjectsV2(
	_ context.Context,
	params *s3.ListObjectsV2Input,
	_ ...func(*s3.Options),
) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpListObjectsV2); err != nil {
		return nil, err
	}
	prefix := aws.ToString(params.Prefix)
	f.listPrefixes = append(f.listPrefixes, prefix)

	limit := 1000
	if params.MaxKeys != nil && *params.MaxKeys > 0 && int(*params.MaxKeys) < limit {
		limit = int(*params.MaxKeys)
	}
	if f.PageSize > 0 && f.PageSize < limit {
		limit = f.PageSize
	}

	keys := f.sortedKeys(prefix)
	if token := aws.ToString(params.ContinuationToken); token != "" {
		start := sort.SearchStrings(keys, token)
		if start < len(keys) && keys[start] == token {
			start++
		}
		keys = keys[start:]
	}

	out := &s3.ListObjectsV2Output{Prefix: params.Prefix}
	if len(keys) > limit {
		keys = keys[:limit]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	} else {
		out.IsTruncated = aws.Bool(false)
	}
	for _, k := range keys {
		obj := f.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.Data))),
			ETag:         aws.String(obj.ETag),
			StorageClass: types.ObjectStorageClass(obj.StorageClass),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

// DeleteObjects removes the listed keys. Missing keys are not errors, as
// with the real service. Requests over 1000 keys are rejected.
func (f *FakeS3) DeleteObjects(
	_ context.Context,
	params *s3.DeleteObjectsInput,
	_ ...func(*s3.Options),
) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpDeleteObjects); err != nil {
		return nil, err
	}
	if params.Delete == nil || len(params.Delete.Objects) == 0 {
		return nil, &smithy.GenericAPIError{Code: "MalformedXML", Message: "no objects"}
	}
	if len(params.Delete.Objects) > 1000 {
		return nil, &smithy.GenericAPIError{Code: "MalformedXML", Message: "too many keys"}
	}
	f.deleteBatches = append(f.deleteBatches, len(params.Delete.Objects))

	out := &s3.DeleteObjectsOutput{}
	for _, id := range params.Delete.Objects {
		key := aws.ToString(id.Key)
		delete(f.objects, key)
		if !aws.ToBool(params.Delete.Quiet) {
			out.Deleted = append(out.Deleted, types.DeletedObject{Key: aws.String(key)})
		}
	}
	return out, nil
}

// HeadObject returns stored metadata. The SHA-256 tag is included only
// when checksum mode is enabled.
func (f *FakeS3) HeadObject(
	_ context.Context,
	params *s3.HeadObjectInput,
	_ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(OpHeadObject); err != nil {
		return nil, err
	}
	obj, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NotFound{Message: aws.String("Not Found")}
	}

	out := &s3.HeadObjectOutput{
		ContentLength:        aws.Int64(int64(len(obj.Data))),
		ETag:                 aws.String(obj.ETag),
		StorageClass:         obj.StorageClass,
		ServerSideEncryption: obj.ServerSideEncryption,
		Metadata:             obj.Metadata,
	}
	if obj.ContentType != "" {
		out.ContentType = aws.String(obj.ContentType)
	}
	if params.ChecksumMode == types.ChecksumModeEnabled {
		out.ChecksumSHA256 = aws.String(obj.Checksum)
	}
	return out, nil
}

func (f *FakeS3) sortedKeys(prefix string) []string {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func readBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	return data, nil
}

func sumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func etagOf(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:16]))
}

func badDigest(want, got string) error {
	return &smithy.GenericAPIError{
		Code:    "BadDigest",
		Message: fmt.Sprintf("checksum mismatch: sent %s, computed %s", want, got),
	}
}
