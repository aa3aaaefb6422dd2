package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/classmate-dev/go-accounts"
	"github.com/goliatone/go-errors"
)

// Config carries the object storage settings.
type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// BaseEndpoint overrides the S3 endpoint, e.g. for MinIO in tests.
	BaseEndpoint string
}

// S3Store stores profile images in an S3 bucket and serves them back by
// public URL.
type S3Store struct {
	client *s3.Client
	bucket string
	region string
}

var _ accounts.Uploader = (*S3Store)(nil)

// NewS3Store builds an S3-backed media store.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load object storage config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
	})

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

// Upload decodes a base64 image payload and stores it under key,
// returning the public location.
func (s *S3Store) Upload(ctx context.Context, base64Payload, key, mime string) (string, error) {
	body, detectedMime, err := ParsePayload(base64Payload)
	if err != nil {
		return "", err
	}

	if mime == "" {
		mime = detectedMime
	}
	if mime == "" {
		mime = "image/jpeg"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(mime),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "failed to upload object").
			WithMetadata(map[string]any{"key": key})
	}

	return s.Location(key), nil
}

// Delete removes an object by key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to delete object").
			WithMetadata(map[string]any{"key": key})
	}

	return nil
}

// Location returns the public URL for a stored key.
func (s *S3Store) Location(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ParsePayload validates and decodes an inline base64 image payload. Data
// URIs ("data:image/png;base64,....") carry their own mime type; bare
// base64 is accepted with no detected mime. Anything that does not decode
// is rejected.
func ParsePayload(payload string) ([]byte, string, error) {
	if payload == "" {
		return nil, "", accounts.ErrInvalidImagePayload
	}

	mime := ""
	data := payload

	if strings.HasPrefix(payload, "data:") {
		header, rest, found := strings.Cut(payload, ",")
		if !found {
			return nil, "", accounts.ErrInvalidImagePayload
		}

		meta := strings.TrimPrefix(header, "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", accounts.ErrInvalidImagePayload
		}

		mime = strings.TrimSuffix(meta, ";base64")
		data = rest
	}

	body, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", accounts.ErrInvalidImagePayload
	}

	if len(body) == 0 {
		return nil, "", accounts.ErrInvalidImagePayload
	}

	return body, mime, nil
}
