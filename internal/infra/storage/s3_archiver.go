/*
 * @Description: 将过期的访问事件以 NDJSON 格式归档到 S3 兼容存储（使用aws-sdk-go-v2）
 */
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/paimon-guide/guide-app/pkg/config"
	"github.com/paimon-guide/guide-app/pkg/domain/model"
)

// objectPutter 是归档器用到的 S3 客户端子集
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver 事件归档器
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Archiver 根据配置创建归档器；未配置 Bucket 时返回 nil，表示不归档
func NewS3Archiver(ctx context.Context, cfg *config.Config) (*S3Archiver, error) {
	bucket := cfg.GetString(config.KeyArchiveBucket)
	if bucket == "" {
		log.Println("ℹ️  [S3 Archive] 未配置归档 Bucket，清理旧事件前不归档")
		return nil, nil
	}
	region := cfg.GetString(config.KeyArchiveRegion)

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if ak := cfg.GetString(config.KeyArchiveAccessKey); ak != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			ak,
			cfg.GetString(config.KeyArchiveSecretKey),
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("创建 S3 归档配置失败: %w", err)
	}

	endpoint := cfg.GetString(config.KeyArchiveEndpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true // MinIO 等自建服务通常需要 path-style
		}
	})

	log.Printf("✅ [S3 Archive] 归档已启用 - bucket: %s, 区域: %s", bucket, region)
	return newS3Archiver(client, bucket, cfg.GetString(config.KeyArchivePrefix)), nil
}

func newS3Archiver(client objectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Archive 将一批事件写成一个对象，返回对象键
func (a *S3Archiver) Archive(ctx context.Context, events []*model.AnalyticsEvent) (string, error) {
	if len(events) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return "", fmt.Errorf("序列化事件 %s 失败: %w", ev.ID, err)
		}
	}

	body := buf.Bytes()
	sum := sha256.Sum256(body)
	key := a.objectKey()

	// 显式设置 ContentLength 和 ChecksumSHA256 以兼容第三方 S3 服务
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(a.bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(body),
		ContentLength:  aws.Int64(int64(len(body))),
		ContentType:    aws.String("application/x-ndjson"),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(sum[:])),
	})
	if err != nil {
		log.Printf("[S3 Archive] 上传失败: %v", err)
		return "", fmt.Errorf("上传归档对象失败: %w", err)
	}

	log.Printf("[S3 Archive] 已归档 %d 条事件到 %s", len(events), key)
	return key, nil
}

// objectKey 形如 prefix/2024/05/10/<uuid>.ndjson
func (a *S3Archiver) objectKey() string {
	day := a.now().UTC().Format("2006/01/02")
	return path.Join(a.prefix, day, uuid.NewString()+".ndjson")
}
