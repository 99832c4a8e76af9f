package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/strength-academy/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// s3Storage implements FileStorage against S3 or an S3-compatible backend.
type s3Storage struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucketName    string
	logger        *zap.Logger
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(ctx context.Context, cfg config.S3Config, logger *zap.Logger) (FileStorage, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			// MinIO and friends need a custom endpoint and path-style addressing.
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("S3 storage initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.BucketName))

	return &s3Storage{
		client:        s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		bucketName:    cfg.BucketName,
		logger:        logger,
	}, nil
}

// GeneratePresignedUploadURL creates a temporary URL for uploading (PUT).
func (s *s3Storage) GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}

	req, err := s.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType), // the client must send the same header
	}, s3.WithPresignExpires(expires))
	if err != nil {
		s.logger.Error("presign PUT failed", zap.String("key", objectKey), zap.Error(err))
		return "", err
	}
	return req.URL, nil
}

// GeneratePresignedDownloadURL creates a temporary URL for downloading (GET).
func (s *s3Storage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		s.logger.Error("presign GET failed", zap.String("key", objectKey), zap.Error(err))
		return "", err
	}
	return req.URL, nil
}

// StatObject looks the object up with a HEAD request.
func (s *s3Storage) StatObject(ctx context.Context, objectKey string) (*ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return &ObjectInfo{
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// DeleteObject removes an object from the bucket.
func (s *s3Storage) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		s.logger.Error("delete object failed", zap.String("key", objectKey), zap.Error(err))
		return err
	}
	s.logger.Info("deleted object", zap.String("key", objectKey))
	return nil
}
