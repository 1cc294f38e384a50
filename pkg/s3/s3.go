package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"feedfinder/pkg/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

type Client struct {
	s3Client *s3.S3
	bucket   string
}

func NewClient(cfg *config.Config) (*Client, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWSRegion),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		),
	}

	// MinIO for local development
	if cfg.AWSEndpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.AWSEndpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if cfg.S3UseSSL == "false" {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	client := &Client{
		s3Client: s3.New(sess),
		bucket:   cfg.S3BucketName,
	}

	if _, err := client.s3Client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(cfg.S3BucketName)}); err != nil {
		// An existing bucket owned by us also fails HeadBucket on some MinIO setups.
		_, _ = client.s3Client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(cfg.S3BucketName)})
	}

	return client, nil
}

// ObjectKey places an upload under its owner with a random name, keeping
// only the extension of the original filename.
func ObjectKey(userID, filename string) string {
	return fmt.Sprintf("media/%s/%s%s", userID, uuid.New().String(), strings.ToLower(path.Ext(filename)))
}

// Upload stores body under key and returns its public URL.
func (c *Client) Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return PublicURL(aws.StringValue(c.s3Client.Config.Endpoint), aws.StringValue(c.s3Client.Config.Region),
		aws.BoolValue(c.s3Client.Config.DisableSSL), c.bucket, key), nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// PublicURL uses path style for custom endpoints and virtual-host style
// for AWS.
func PublicURL(endpoint, region string, disableSSL bool, bucket, key string) string {
	if endpoint != "" && !strings.Contains(endpoint, "amazonaws.com") {
		protocol := "https"
		if disableSSL {
			protocol = "http"
		}
		endpoint = strings.TrimPrefix(endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		return fmt.Sprintf("%s://%s/%s/%s", protocol, strings.TrimRight(endpoint, "/"), bucket, key)
	}

	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// KeyFromURL recovers the object key from a URL built by PublicURL. It
// returns "" for URLs that point elsewhere.
func KeyFromURL(bucket, url string) string {
	if i := strings.Index(url, "/"+bucket+"/"); i >= 0 {
		return url[i+len(bucket)+2:]
	}
	if i := strings.Index(url, bucket+".s3."); i >= 0 {
		rest := url[i:]
		if j := strings.Index(rest, "/"); j >= 0 {
			return rest[j+1:]
		}
	}
	return ""
}

func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) KeyForURL(url string) string {
	return KeyFromURL(c.bucket, url)
}
