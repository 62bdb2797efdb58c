package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used to load templates.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// LoadS3 reads every <prefix>/<name>/<lang>.html object of the bucket.
// It is meant to run once at start-up; the returned store never calls S3 again.
func LoadS3(ctx context.Context, client S3API, bucket, prefix string) (*Store, error) {
	prefix = strings.Trim(prefix, "/")
	listPrefix := prefix
	if listPrefix != "" {
		listPrefix += "/"
	}

	docs := make(map[Key]string)
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(listPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list templates in s3://%s/%s: %w", bucket, listPrefix, err)
		}

		for _, object := range page.Contents {
			objectKey := aws.ToString(object.Key)
			key, ok := keyFromPath(strings.TrimPrefix(objectKey, listPrefix))
			if !ok {
				continue
			}

			content, err := getObject(ctx, client, bucket, objectKey)
			if err != nil {
				return nil, err
			}
			docs[key] = content
		}
	}

	return &Store{docs: docs}, nil
}

func getObject(ctx context.Context, client S3API, bucket, key string) (string, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get template s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("read template s3://%s/%s: %w", bucket, key, err)
	}
	return string(content), nil
}
