package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spigell/cv-screener/internal/utils"
)

const (
	defaultS3Region    = "auto"
	defaultGetAttempts = 3
	getRetryDelay      = 500 * time.Millisecond
)

// S3Config describes an S3 compatible bucket (AWS S3, Cloudflare R2, MinIO).
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access-key"`
	SecretKey string `mapstructure:"secret-key"`
	PathStyle bool   `mapstructure:"path-style"`
}

type objectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Source reads documents stored under a bucket prefix.
type S3Source struct {
	client   objectAPI
	bucket   string
	prefix   string
	attempts int
}

// NewS3Source builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 bucket is required")
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultS3Region
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return newS3Source(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Source(client objectAPI, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: prefix, attempts: defaultGetAttempts}
}

func (s *S3Source) Name() string { return "s3" }

// List returns the keys of supported documents under the prefix.
func (s *S3Source) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	keys := make([]string, 0)
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects in %s: %w", s.bucket, err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if slices.Contains(supportedExtensions, strings.ToLower(path.Ext(key))) {
				keys = append(keys, key)
			}
		}
	}
	return keys, nil
}

// Fetch downloads key, retrying transient failures.
func (s *S3Source) Fetch(ctx context.Context, key string) (*Document, error) {
	attempts := max(s.attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		data, mime, err := s.get(ctx, key)
		if err == nil {
			if mime == "" {
				mime = mimeByExtension(key)
			}
			return &Document{Name: path.Base(key), Source: s.Name(), MIME: mime, Data: data}, nil
		}
		lastErr = err

		if attempt < attempts {
			if err := utils.WaitFor(ctx, time.Duration(attempt)*getRetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("get %s after %d attempts: %w", key, attempts, lastErr)
}

func (s *S3Source) get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, "", fmt.Errorf("read object body: %w", err)
	}
	return buf.Bytes(), aws.ToString(out.ContentType), nil
}
