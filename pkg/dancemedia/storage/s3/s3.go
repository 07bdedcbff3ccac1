// Package s3 stores media in Cloudflare R2 or any other S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
	"github.com/tendant/folklorico-media/pkg/dancemedia/publicurl"
)

// Config options for the S3 backend
type Config struct {
	Bucket          string // Bucket name
	Region          string // Region (default: "auto", which R2 expects)
	AccessKeyID     string
	SecretAccessKey string
	AccountID       string // Cloudflare account ID; selects the R2 endpoint
	Endpoint        string // Custom endpoint, used when AccountID is empty
	UsePathStyle    bool
	PublicDomain    string // Domain objects are publicly served from

	MaxAttempts    int           // Attempts per request including the first (default: 3)
	MaxBackoff     time.Duration // Upper bound on retry backoff (default: SDK default)
	ConnectTimeout time.Duration // Dial timeout (default: 60s)
	Timeout        time.Duration // Whole request timeout (default: 300s)

	// SkipACL omits the public-read ACL for buckets that reject ACL headers
	SkipACL bool

	CreateBucketIfNotExist bool
}

// Backend is an S3-compatible implementation of dancemedia.ObjectStore
type Backend struct {
	client   *s3.Client
	uploader *manager.Uploader
	urls     *publicurl.Mapper
	config   Config
}

func (c Config) endpoint() string {
	if c.AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
	}
	return c.Endpoint
}

// New creates a new S3-compatible storage backend
func New(ctx context.Context, config Config) (*Backend, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	if config.Region == "" {
		config.Region = "auto"
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 60 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 300 * time.Second
	}

	urls, err := publicurl.New(config.PublicDomain)
	if err != nil {
		return nil, fmt.Errorf("invalid public domain: %w", err)
	}

	httpClient := awshttp.NewBuildableClient().
		WithTimeout(config.Timeout).
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = config.ConnectTimeout
		})

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				o.MaxAttempts = config.MaxAttempts
				if config.MaxBackoff > 0 {
					o.MaxBackoff = config.MaxBackoff
				}
			})
		}),
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if endpoint := config.endpoint(); endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)
	backend := &Backend{
		client:   client,
		uploader: manager.NewUploader(client),
		urls:     urls,
		config:   config,
	}

	if config.CreateBucketIfNotExist {
		if err := backend.createBucketIfNotExists(ctx); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return backend, nil
}

func (b *Backend) createBucketIfNotExists(ctx context.Context) error {
	_, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.config.Bucket),
	})
	if err == nil {
		return nil
	}
	var noSuchBucket *types.NoSuchBucket
	if !isNotFound(err) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	_, err = b.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(b.config.Bucket),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "BucketAlreadyExists" || apiErr.ErrorCode() == "BucketAlreadyOwnedByYou") {
			return nil
		}
		return err
	}
	return nil
}

// Upload streams the local file to the bucket and returns its public URL
func (b *Backend) Upload(ctx context.Context, params dancemedia.UploadParams) (string, error) {
	f, err := os.Open(params.LocalPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.config.Bucket),
		Key:         aws.String(params.Key),
		Body:        f,
		ContentType: aws.String(params.ContentType),
	}
	if !b.config.SkipACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := b.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return b.urls.URL(params.Key), nil
}

// Delete deletes an object. A missing object is not an error.
func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (b *Backend) PublicURL(key string) string {
	return b.urls.URL(key)
}

func (b *Backend) KeyFromURL(url string) (string, bool) {
	return b.urls.Key(url)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "404"
	}
	return false
}

var _ dancemedia.ObjectStore = (*Backend)(nil)
