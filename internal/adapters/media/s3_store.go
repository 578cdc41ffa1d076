package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/crypto/blake2b"
)

// refScheme prefixes every reference returned by S3Store.
const refScheme = "blake2b:"

// objectAPI is the subset of the S3 client used by S3Store.
type objectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements Store on S3. Objects are keyed by their blake2b-256 digest,
// so uploading the same photo twice stores it once.
type S3Store struct {
	client objectAPI
	bucket string
	prefix string
}

// S3Config holds configuration for S3Store.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string // Optional custom endpoint (MinIO, LocalStack)
	Prefix   string // Optional key prefix, e.g. "incidents/"
}

// NewS3Store creates an S3-backed media store from the default AWS credential chain.
// PRE: cfg.Bucket is non-empty
// POST: Returns a store or an error if the AWS config cannot be loaded
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media bucket is required")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Store(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Store(client objectAPI, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Put uploads obj unless an object with the same digest already exists.
// PRE: obj.Validate() == nil
// POST: Returns "blake2b:<hex digest>"
func (s *S3Store) Put(ctx context.Context, obj Object) (string, error) {
	if err := obj.Validate(); err != nil {
		return "", err
	}
	sum := blake2b.Sum256(obj.Data)
	digest := hex.EncodeToString(sum[:])
	key := s.key(obj.SubjectID, digest)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err == nil {
		return refScheme + digest, nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(obj.Data),
		ContentType: aws.String(obj.contentType()),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put failed: %w", err)
	}
	return refScheme + digest, nil
}

func (s *S3Store) key(subjectID, digest string) string {
	var b strings.Builder
	b.WriteString(s.prefix)
	if subjectID != "" {
		b.WriteString(subjectID)
		b.WriteString("/")
	}
	b.WriteString(digest)
	return b.String()
}
