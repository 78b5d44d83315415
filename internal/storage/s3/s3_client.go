package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"receiptdesk/internal/config"
	"receiptdesk/internal/domain"
	"receiptdesk/internal/port"
)

// objectStage is the S3-backed ObjectStage. The quarantine and processed
// areas are key prefixes within one bucket.
type objectStage struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
	cfg       *config.S3Config
}

// NewObjectStage creates a new S3-backed ObjectStage implementation.
func NewObjectStage(cfg *config.S3Config) (port.ObjectStage, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &objectStage{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
		cfg:       cfg,
	}, nil
}

func (c *objectStage) quarantineKey(blobName string) string {
	return c.cfg.QuarantinePrefix + "/" + blobName
}

func (c *objectStage) processedKey(blobName string) string {
	return c.cfg.ProcessedPrefix + "/" + blobName
}

func (c *objectStage) StageToQuarantine(ctx context.Context, content io.Reader, blobName, contentType string) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(c.quarantineKey(blobName)),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 stage: %w", err)
	}
	return nil
}

func (c *objectStage) Download(ctx context.Context, blobName string) ([]byte, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.quarantineKey(blobName)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, domain.ErrObjectNotFound
		}
		return nil, fmt.Errorf("s3 download: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 download read: %w", err)
	}
	return data, nil
}

// MoveToProcessed copies the staged object into the processed prefix and
// deletes the original. The copy and delete are not atomic; callers treat the
// whole move as best-effort.
func (c *objectStage) MoveToProcessed(ctx context.Context, blobName string) error {
	// CopySource must be URL-encoded; blob names embed caller-supplied owner
	// IDs that can carry spaces or non-ASCII characters.
	source := (&url.URL{Path: c.cfg.Bucket + "/" + c.quarantineKey(blobName)}).EscapedPath()

	_, err := c.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(c.cfg.Bucket),
		Key:        aws.String(c.processedKey(blobName)),
		CopySource: aws.String(source),
	})
	if err != nil {
		return fmt.Errorf("s3 copy to processed: %w", err)
	}

	_, err = c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.quarantineKey(blobName)),
	})
	if err != nil {
		return fmt.Errorf("s3 delete from quarantine: %w", err)
	}
	return nil
}

func (c *objectStage) GetPresignedURL(ctx context.Context, blobName string, processed bool, expirySeconds int64) (string, error) {
	key := c.quarantineKey(blobName)
	if processed {
		key = c.processedKey(blobName)
	}

	result, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(time.Duration(expirySeconds)*time.Second))
	if err != nil {
		return "", fmt.Errorf("s3 presign: %w", err)
	}
	return result.URL, nil
}
