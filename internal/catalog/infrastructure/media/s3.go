// Package media 商品图片的对象存储
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	cfg "github.com/wyfcoding/ecommerce/pkg/config"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// Store 基于 S3 兼容存储的图片仓库
type Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewStore 创建对象存储客户端，Endpoint 非空时指向 S3 兼容服务（MinIO 等）
func NewStore(ctx context.Context, mc cfg.MediaConfig) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(mc.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(mc.AccessKey, mc.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if mc.Endpoint != "" {
			o.BaseEndpoint = aws.String(mc.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client:        client,
		bucket:        mc.Bucket,
		publicBaseURL: strings.TrimRight(mc.PublicBaseURL, "/"),
	}, nil
}

// Upload 上传一张商品图片，返回可公开访问的 URL
func (s *Store) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("products/%s%s", uuid.New().String(), path.Ext(filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return s.publicBaseURL + "/" + key, nil
}

// Delete 删除一张图片，URL 不属于本存储时跳过
func (s *Store) Delete(ctx context.Context, imageURL string) error {
	key, ok := strings.CutPrefix(imageURL, s.publicBaseURL+"/")
	if !ok {
		logger.Warn(ctx, "Skipping delete of foreign image URL", "url", imageURL)
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
