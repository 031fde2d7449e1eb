package profilestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3].
// The [s3.Client] type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 stores one <prefix>/<name>.vpr object per speaker in an S3 bucket
// or any S3-compatible object store (MinIO, R2, etc.).
//
// Each Put is a single PutObject with the full record as its body; S3
// replaces objects atomically, so readers see the old or new record only.
type S3 struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed Store.
//
// The client should be pre-configured (credentials, region, endpoint).
// Prefix is prepended to all object keys; pass "" for no prefix.
func NewS3(client S3Client, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// key builds the full S3 object key for a speaker.
func (s *S3) key(name string) string {
	if s.prefix == "" {
		return name + Ext
	}
	return s.prefix + "/" + name + Ext
}

// listPrefix is the key prefix covering every record of this store.
func (s *S3) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}

func (s *S3) Put(ctx context.Context, p Profile) error {
	data, err := encodeProfile(p)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(p.Name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/msgpack"),
	})
	if err != nil {
		return fmt.Errorf("profilestore: put %s: %w", p.Name, err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, name string) (Profile, error) {
	if err := ValidateName(name); err != nil {
		return Profile{}, err
	}
	data, err := s.read(ctx, s.key(name))
	if err != nil {
		if isS3NotFound(err) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("profilestore: get %s: %w", name, err)
	}
	return decodeProfile(name, data)
}

func (s *S3) read(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// List pages through every object under the prefix and reads each record.
// Objects in nested "directories" below the prefix are ignored.
func (s *S3) List(ctx context.Context) (*Listing, error) {
	prefix := s.listPrefix()
	l := &Listing{}
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("profilestore: list: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			file := strings.TrimPrefix(key, prefix)
			if strings.Contains(file, "/") || strings.HasPrefix(file, ".") || !strings.HasSuffix(file, Ext) {
				continue
			}
			data, err := s.read(ctx, key)
			if err != nil {
				l.Skipped = append(l.Skipped, SkippedRecord{Key: key, Err: err})
				continue
			}
			p, err := decodeProfile(strings.TrimSuffix(file, Ext), data)
			if err != nil {
				l.Skipped = append(l.Skipped, SkippedRecord{Key: key, Err: err})
				continue
			}
			l.Profiles = append(l.Profiles, p)
		}
	}
	l.sort()
	return l, nil
}

// Delete removes the record via DeleteObject.
// S3 DeleteObject is already idempotent (returns success for missing keys).
func (s *S3) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

func (s *S3) Close() error { return nil }

// isS3NotFound reports whether err indicates the S3 object does not exist.
func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Compile-time interface check.
var _ Store = (*S3)(nil)
