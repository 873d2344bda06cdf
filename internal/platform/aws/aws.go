// Package aws builds the AWS SDK clients used for listing photos and the
// outbound email queue.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"shareaplate_backend/internal/config"
)

// LoadConfig resolves credentials the default way and applies the configured
// region and optional endpoint override (LocalStack in development).
func LoadConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	if cfg.AWSEndpointURL != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
	}
	return awsCfg, nil
}

// NewS3Client returns nil when no image bucket is configured.
func NewS3Client(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*s3.Client, error) {
	if cfg.S3ImageBucket == "" {
		logger.Info("S3_IMAGE_BUCKET not set; listing photo uploads are disabled")
		return nil, nil
	}
	awsCfg, err := LoadConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3.New(s3.Options{
		Region:       awsCfg.Region,
		Credentials:  awsCfg.Credentials,
		HTTPClient:   awsCfg.HTTPClient,
		BaseEndpoint: awsCfg.BaseEndpoint,
		UsePathStyle: true,
	}), nil
}

// NewSQSClient returns nil when no email queue is configured.
func NewSQSClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sqs.Client, error) {
	if cfg.SQSEmailQueueName == "" {
		logger.Info("SQS_EMAIL_QUEUE_NAME not set; email notifications are logged only")
		return nil, nil
	}
	awsCfg, err := LoadConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sqs.New(sqs.Options{
		Region:       awsCfg.Region,
		Credentials:  awsCfg.Credentials,
		HTTPClient:   awsCfg.HTTPClient,
		BaseEndpoint: awsCfg.BaseEndpoint,
	}), nil
}

// QueueURL looks up the URL of a queue by name.
func QueueURL(ctx context.Context, client *sqs.Client, name string) (string, error) {
	resp, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to get SQS queue URL for %s: %w", name, err)
	}
	return aws.ToString(resp.QueueUrl), nil
}
