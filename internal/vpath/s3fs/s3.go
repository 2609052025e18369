// Package s3fs implements vpath.Backend over Amazon S3, adapted from the
// teacher's backend/s3/s3.go: paginated ListObjectsV2 with a "/" delimiter,
// trailing-slash empty objects as directory markers, and awserr
// classification into the shared error taxonomy.
package s3fs

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/shimomut/tfm-sub010/internal/fserrors"
	"github.com/shimomut/tfm-sub010/internal/pacer"
	"github.com/shimomut/tfm-sub010/internal/vpath"
)

// Backend implements vpath.Backend over S3. A bucketless Path ("s3://") is
// exposed as a single virtual root directory listing buckets; spec.md §3
// treats the bucket name as the first path segment, same as the teacher's
// own "bucket as root directory" convention.
type Backend struct {
	client *s3.S3
	pacer  *pacer.Pacer
}

// New builds the shared S3 backend from the environment's default AWS
// credential chain (spec.md §6 names no bespoke credential surface, so the
// SDK's own chain — env vars, shared config, instance role — applies).
func New() (*Backend, error) {
	sess, err := session.NewSessionWithOptions(session.Options{SharedConfigState: session.SharedConfigEnable})
	if err != nil {
		return nil, fserrors.NetworkError("s3", err)
	}
	return &Backend{
		client: s3.New(sess),
		pacer:  pacer.New(pacer.MinSleep(10 * time.Millisecond)),
	}, nil
}

func (b *Backend) Scheme() vpath.Scheme { return vpath.SchemeS3 }
func (b *Backend) ReadOnly() bool       { return false }

// splitKey separates raw ("bucket/key/path") into bucket and key, the way
// the teacher's Fs.split does for a rooted S3 Fs.
func splitKey(raw string) (bucket, key string) {
	raw = strings.TrimPrefix(raw, "/")
	idx := strings.IndexByte(raw, '/')
	if idx < 0 {
		return raw, ""
	}
	return raw[:idx], raw[idx+1:]
}

func (b *Backend) call(ctx context.Context, fn func() error) error {
	return b.pacer.Call(ctx, fn, shouldRetry)
}

// shouldRetry mirrors the teacher's Fs.shouldRetry: classify awserr values,
// fall back to fserrors.Retriable for everything else.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		switch reqErr.StatusCode() {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	if _, ok := err.(awserr.Error); ok {
		return true // DNS/connection-level errors surface as plain awserr.Error
	}
	return fserrors.Retriable(err)
}

func mapAWSErr(subject string, err error) error {
	if reqErr, ok := err.(awserr.RequestFailure); ok {
		switch reqErr.StatusCode() {
		case 404:
			return fserrors.NotFound(subject, err)
		case 403:
			return fserrors.PermissionDenied(subject, err)
		}
	}
	if awsErr, ok := err.(awserr.Error); ok {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket:
			return fserrors.NotFound(subject, err)
		}
	}
	return fserrors.NetworkError(subject, err)
}

func (b *Backend) Exists(ctx context.Context, raw string) bool {
	_, err := b.Stat(ctx, raw)
	return err == nil
}

func (b *Backend) Stat(ctx context.Context, raw string) (vpath.Stat, error) {
	bucket, key := splitKey(raw)
	if key == "" {
		// Bucket-level stat: treat as a directory if it exists.
		return b.statBucket(ctx, bucket)
	}
	var st vpath.Stat
	err := b.call(ctx, func() error {
		out, err := b.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket), Key: aws.String(key),
		})
		if err != nil {
			// A zero-byte "dir/" marker or a true prefix both stat as a
			// directory — probe via a single-item listing before giving up.
			if isDirMarker(ctx, b, bucket, key) {
				st = vpath.Stat{IsDir: true}
				return nil
			}
			return mapAWSErr(raw, err)
		}
		st = vpath.Stat{
			Size:    aws.Int64Value(out.ContentLength),
			ModTime: aws.TimeValue(out.LastModified),
			IsFile:  true,
		}
		return nil
	})
	return st, err
}

func (b *Backend) statBucket(ctx context.Context, bucket string) (vpath.Stat, error) {
	var st vpath.Stat
	err := b.call(ctx, func() error {
		_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			return mapAWSErr(bucket, err)
		}
		st = vpath.Stat{IsDir: true}
		return nil
	})
	return st, err
}

func isDirMarker(ctx context.Context, b *Backend, bucket, key string) bool {
	prefix := strings.TrimSuffix(key, "/") + "/"
	out, err := b.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket), Prefix: aws.String(prefix), MaxKeys: aws.Int64(1),
	})
	return err == nil && (len(out.Contents) > 0 || len(out.CommonPrefixes) > 0)
}

// Iterdir lists raw's direct children using a "/" delimiter, the way the
// teacher's Fs.list groups ListObjectsV2 results into CommonPrefixes
// (subdirectories) and Contents (files), paginating transparently.
func (b *Backend) Iterdir(ctx context.Context, raw string) ([]vpath.Entry, error) {
	bucket, key := splitKey(raw)
	if bucket == "" {
		return b.listBuckets(ctx)
	}
	prefix := key
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var entries []vpath.Entry
	err := b.call(ctx, func() error {
		entries = nil
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(bucket), Prefix: aws.String(prefix), Delimiter: aws.String("/"),
		}
		return b.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, cp := range page.CommonPrefixes {
				name := strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(cp.Prefix), prefix), "/")
				if name == "" {
					continue
				}
				entries = append(entries, vpath.Entry{Name: name, Stat: vpath.Stat{IsDir: true}})
			}
			for _, obj := range page.Contents {
				name := strings.TrimPrefix(aws.StringValue(obj.Key), prefix)
				if name == "" || strings.HasSuffix(name, "/") {
					continue // the directory's own zero-byte marker object
				}
				entries = append(entries, vpath.Entry{
					Name: name,
					Stat: vpath.Stat{Size: aws.Int64Value(obj.Size), ModTime: aws.TimeValue(obj.LastModified), IsFile: true},
				})
			}
			return true
		})
	})
	if err != nil {
		return nil, mapAWSErr(raw, err)
	}
	return entries, nil
}

func (b *Backend) listBuckets(ctx context.Context) ([]vpath.Entry, error) {
	var entries []vpath.Entry
	err := b.call(ctx, func() error {
		out, err := b.client.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
		if err != nil {
			return err
		}
		entries = make([]vpath.Entry, 0, len(out.Buckets))
		for _, bk := range out.Buckets {
			entries = append(entries, vpath.Entry{
				Name: aws.StringValue(bk.Name),
				Stat: vpath.Stat{IsDir: true, ModTime: aws.TimeValue(bk.CreationDate)},
			})
		}
		return nil
	})
	if err != nil {
		return nil, mapAWSErr("s3://", err)
	}
	return entries, nil
}

func (b *Backend) Open(ctx context.Context, raw string, mode vpath.OpenMode) (io.ReadWriteCloser, error) {
	bucket, key := splitKey(raw)
	if mode == vpath.ModeWrite {
		return newS3Writer(ctx, b, bucket, key), nil
	}
	var body []byte
	err := b.call(ctx, func() error {
		out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		data, err := io.ReadAll(out.Body)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, mapAWSErr(raw, err)
	}
	return &readCloser{Reader: bytes.NewReader(body)}, nil
}

type readCloser struct{ *bytes.Reader }

func (r *readCloser) Write(p []byte) (int, error) { return 0, fserrors.ReadOnly("s3 read stream") }
func (r *readCloser) Close() error                { return nil }

// s3Writer buffers a whole object client-side and issues a single PutObject
// on Close, matching spec.md §4.1's "writes are atomic from the caller's
// perspective" requirement — S3 has no partial-write visibility to begin
// with, so buffer-then-PUT is both simplest and correct.
type s3Writer struct {
	ctx    context.Context
	b      *Backend
	bucket string
	key    string
	buf    bytes.Buffer
}

func newS3Writer(ctx context.Context, b *Backend, bucket, key string) *s3Writer {
	return &s3Writer{ctx: ctx, b: b, bucket: bucket, key: key}
}

func (w *s3Writer) Read(p []byte) (int, error) { return 0, fserrors.InvalidArgument("s3 write stream", nil) }
func (w *s3Writer) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *s3Writer) Close() error {
	return w.b.call(w.ctx, func() error {
		_, err := w.b.client.PutObjectWithContext(w.ctx, &s3.PutObjectInput{
			Bucket: aws.String(w.bucket),
			Key:    aws.String(w.key),
			Body:   bytes.NewReader(w.buf.Bytes()),
		})
		if err != nil {
			return mapAWSErr(w.key, err)
		}
		return nil
	})
}

// Rename has no native S3 primitive: copy then delete, same as the
// teacher's Fs.Move falling back to server-side CopyObject + Delete.
func (b *Backend) Rename(ctx context.Context, raw, rawTarget string) error {
	bucket, key := splitKey(raw)
	dstBucket, dstKey := splitKey(rawTarget)
	err := b.call(ctx, func() error {
		source := bucket + "/" + key
		_, err := b.client.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
			Bucket: aws.String(dstBucket), Key: aws.String(dstKey), CopySource: aws.String(source),
		})
		return err
	})
	if err != nil {
		return mapAWSErr(raw, err)
	}
	return b.Unlink(ctx, raw)
}

func (b *Backend) Unlink(ctx context.Context, raw string) error {
	bucket, key := splitKey(raw)
	err := b.call(ctx, func() error {
		_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		return err
	})
	if err != nil {
		return mapAWSErr(raw, err)
	}
	return nil
}

// Rmdir deletes the directory marker object, the way the teacher's
// createDirectoryMarker's counterpart does; S3 directories with remaining
// children are left dangling keys, so callers must have emptied it first.
func (b *Backend) Rmdir(ctx context.Context, raw string) error {
	bucket, key := splitKey(raw)
	marker := strings.TrimSuffix(key, "/") + "/"
	entries, err := b.Iterdir(ctx, raw)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fserrors.PermissionDenied(raw, nil)
	}
	err = b.call(ctx, func() error {
		_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(marker)})
		return err
	})
	if err != nil {
		return mapAWSErr(raw, err)
	}
	return nil
}

// Mkdir creates the zero-byte "key/" marker object the teacher's
// createDirectoryMarker uses to make an otherwise-prefix-only directory
// stat-able and listable even when empty.
func (b *Backend) Mkdir(ctx context.Context, raw string) error {
	bucket, key := splitKey(raw)
	marker := strings.TrimSuffix(key, "/") + "/"
	err := b.call(ctx, func() error {
		_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket: aws.String(bucket), Key: aws.String(marker), Body: bytes.NewReader(nil),
		})
		return err
	})
	if err != nil {
		return mapAWSErr(raw, err)
	}
	return nil
}
