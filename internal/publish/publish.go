// Package publish uploads the rendered site to an S3-compatible bucket for
// static hosting.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

type Publisher struct {
	client *s3.Client
	bucket string
	prefix string
	log    *logrus.Logger
}

func New(client *s3.Client, bucket, prefix string, log *logrus.Logger) *Publisher {
	return &Publisher{client: client, bucket: bucket, prefix: prefix, log: log}
}

// PublishDir uploads every file under dir to the bucket, keyed by its path
// relative to dir (below the configured prefix). Uploads happen in sorted key
// order so repeated runs are easy to diff in logs.
func (p *Publisher) PublishDir(ctx context.Context, dir string) error {
	files := make([]string, 0)
	err := filepath.WalkDir(dir, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)

	for _, filePath := range files {
		rel, err := filepath.Rel(dir, filePath)
		if err != nil {
			return err
		}
		key := path.Join(p.prefix, filepath.ToSlash(rel))
		if err := p.uploadFile(ctx, filePath, key); err != nil {
			return fmt.Errorf("failed to upload %s: %w", rel, err)
		}
		p.log.Infof("uploaded %s to s3://%s/%s", rel, p.bucket, key)
	}
	p.log.Infof("published %d files from %s", len(files), dir)
	return nil
}

func (p *Publisher) uploadFile(ctx context.Context, filePath, key string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &p.bucket,
		Key:         &key,
		Body:        file,
		ContentType: aws.String(contentType),
	})
	return err
}
