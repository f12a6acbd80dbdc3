package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/use-agent/recipebox/models"
)

// ObjectAPI is the subset of the S3 client the store needs.
// *s3.Client satisfies it; tests use an in-memory fake.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Options configures the S3 backend. Region and Profile are optional
// and fall back to the standard AWS config chain.
type S3Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	UsePathStyle bool
}

// S3 stores one JSON object per summary. Object names are the base64url
// encoding of the key under Prefix, since URLs contain '/' and '?'.
type S3 struct {
	api    ObjectAPI
	bucket string
	prefix string
}

// OpenS3 creates an S3 client from the default AWS configuration chain.
func OpenS3(ctx context.Context, opts S3Options) (*S3, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, unavailable("open", fmt.Errorf("load aws config: %w", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
	})
	return NewS3(client, opts.Bucket, opts.Prefix), nil
}

// NewS3 wraps an existing object API.
func NewS3(api ObjectAPI, bucket, prefix string) *S3 {
	return &S3{api: api, bucket: bucket, prefix: prefix}
}

func (s *S3) objectKey(key string) string {
	return s.prefix + base64.RawURLEncoding.EncodeToString([]byte(key))
}

func (s *S3) Put(ctx context.Context, key string, sum *models.StoredSummary) error {
	data, err := json.Marshal(stamp(key, sum))
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, key string) (*models.StoredSummary, bool, error) {
	sum, err := s.getObject(ctx, s.objectKey(key))
	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("get", err)
	}
	if sum.Key == "" {
		sum.Key = key
	}
	return sum, true, nil
}

func (s *S3) List(ctx context.Context) (map[string]*models.StoredSummary, error) {
	out := make(map[string]*models.StoredSummary)
	var token *string
	for {
		page, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, unavailable("list", err)
		}
		for _, obj := range page.Contents {
			objKey := aws.ToString(obj.Key)
			sum, err := s.getObject(ctx, objKey)
			if isNotFound(err) {
				// Deleted between the listing and the read.
				continue
			}
			if err != nil {
				return nil, unavailable("list", err)
			}
			if sum.Key == "" {
				sum.Key = decodeObjectKey(strings.TrimPrefix(objKey, s.prefix))
			}
			out[sum.Key] = sum
		}
		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			return out, nil
		}
		token = page.NextContinuationToken
	}
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil && !isNotFound(err) {
		return unavailable("delete", err)
	}
	return nil
}

func (s *S3) Close() error { return nil }

func (s *S3) getObject(ctx context.Context, objKey string) (*models.StoredSummary, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", objKey, err)
	}
	var sum models.StoredSummary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("decode object %s: %w", objKey, err)
	}
	return &sum, nil
}

func decodeObjectKey(name string) string {
	b, err := base64.RawURLEncoding.DecodeString(name)
	if err != nil {
		return name
	}
	return string(b)
}

// isNotFound reports whether err is a missing-object response. A bare 404
// is not enough: NoSuchBucket is also a 404 and must surface as a failure.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
