package s3

import (
	"context"
	"errors"
	"fmt"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"abanalyzer/internal/config"
	apperrors "abanalyzer/internal/errors"
)

// Client is a minimal S3 surface for the loader: check that a data file
// exists before issuing a COPY for it, and discover files under a prefix.
// Single bucket; keys map to object keys directly.
type Client struct {
	api    *awss3.Client
	bucket string
}

// New creates an S3 client from configuration. Credentials come from the
// default chain; a custom endpoint (e.g. MinIO) is supported for tests.
func New(ctx context.Context, cfg *config.S3Config) (*Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, apperrors.ExternalServiceError("s3", err)
	}
	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Client{api: api, bucket: cfg.Bucket}, nil
}

// Exists reports whether the object is present in the bucket.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.api.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, apperrors.ExternalServiceError("s3", fmt.Errorf("head %s: %w", key, err))
	}
	return true, nil
}

// List returns the keys under a prefix in lexical order, following
// pagination.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := awss3.NewListObjectsV2Paginator(c.api, &awss3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.ExternalServiceError("s3", fmt.Errorf("list %s: %w", prefix, err))
		}
		for _, obj := range page.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}
