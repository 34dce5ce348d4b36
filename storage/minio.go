package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// MaxReceiptSize caps uploaded receipts at 10 MiB.
const MaxReceiptSize = 10 << 20

var receiptTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".xml":  "application/xml",
}

// ContentTypeFor returns the content type of an accepted receipt file, or false.
func ContentTypeFor(filename string) (string, bool) {
	ct, ok := receiptTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

// ReceiptKey builds the object key of a payment receipt.
func ReceiptKey(paymentID uint, filename string) string {
	return fmt.Sprintf("payments/%d/%s%s", paymentID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
}

type MinIOClient struct {
	client     *minio.Client
	bucketName string
	log        logrus.FieldLogger
}

// NewMinIOClient connects to MinIO and creates the bucket when missing.
func NewMinIOClient(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool, log logrus.FieldLogger) (*MinIOClient, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Infof("bucket %s created", bucketName)
	}

	return &MinIOClient{client: client, bucketName: bucketName, log: log}, nil
}

// Upload stores data under key.
func (m *MinIOClient) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	m.log.WithField("key", key).Info("receipt uploaded")
	return nil
}

// Delete removes the object under key.
func (m *MinIOClient) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URL returns a presigned download URL valid for ttl.
func (m *MinIOClient) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucketName, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}
