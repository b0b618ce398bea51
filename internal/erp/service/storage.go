package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ObjectStorage 附件存储
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// MinIOStorage 基于MinIO的附件存储
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage 创建MinIO存储
func NewMinIOStorage(client *minio.Client, bucket string) *MinIOStorage {
	return &MinIOStorage{client: client, bucket: bucket}
}

// Put 上传对象
func (m *MinIOStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload to minio: %w", err)
	}
	return nil
}

// Get 下载对象
func (m *MinIOStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	// GetObject 是惰性的，Stat 才会暴露不存在等错误
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("object %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

// Remove 删除对象
func (m *MinIOStorage) Remove(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// nextNumber 按 PREFIX-YYYY-NNNN 生成下一个编号，last 为同前缀同年最大编号
func nextNumber(prefix string, year int, last string) string {
	head := fmt.Sprintf("%s-%d-", prefix, year)
	seq := 0
	if strings.HasPrefix(last, head) {
		if n, err := strconv.Atoi(strings.TrimPrefix(last, head)); err == nil {
			seq = n
		}
	}
	return fmt.Sprintf("%s%04d", head, seq+1)
}
