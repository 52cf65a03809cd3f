package objectclient

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	cfg "github.com/markdave123-py/orthoscan/internal/config"
	"github.com/markdave123-py/orthoscan/internal/core"
)

var _ core.ObjectClient = (*S3Client)(nil)

type S3Client struct {
	client *s3.Client
	region string
	log    *zap.Logger
}

// NewS3Client builds an S3 client. Static credentials are used when both keys are
// configured, otherwise the default AWS credential chain applies.
func NewS3Client(ctx context.Context, cfg *cfg.Config, log *zap.Logger) (*S3Client, error) {
	if cfg.AwsRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if log == nil {
		log = zap.NewNop()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AwsRegion)}
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AwsAccessKey, cfg.AwsSecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	log.Debug("s3 client configured", zap.String("region", cfg.AwsRegion))
	return &S3Client{
		client: s3.NewFromConfig(awsCfg),
		region: cfg.AwsRegion,
		log:    log,
	}, nil
}

// UploadFile uploads a file to S3 and returns its virtual-hosted URL.
func (c *S3Client) UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (string, error) {
	uploader := manager.NewUploader(c.client)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}

	ctxUpload, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if _, err := uploader.Upload(ctxUpload, input); err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	u := url.URL{Scheme: "https", Host: fmt.Sprintf("%s.s3.%s.amazonaws.com", bucket, c.region), Path: "/" + key}
	return u.String(), nil
}

func (c *S3Client) DeleteFile(ctx context.Context, bucket, key string) error {
	ctxDel, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := c.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// GetFile downloads a whole object with the concurrent S3 download manager.
// Archives are read with random access, so they are held in memory.
func (c *S3Client) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	ctxGet, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	buf := manager.NewWriteAtBuffer([]byte{})
	n, err := manager.NewDownloader(c.client).Download(ctxGet, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	c.log.Debug("downloaded object", zap.String("bucket", bucket), zap.String("key", key), zap.Int64("bytes", n))

	return buf.Bytes(), nil
}

// GetObjectReader streams an object. The caller closes the reader.
func (c *S3Client) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	resp, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}

	return resp.Body, nil
}
