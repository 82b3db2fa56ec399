package debfoundry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// MirrorClient wraps the S3 client for any S3-compatible mirror bucket.
type MirrorClient struct {
	Client     *s3.Client
	BucketName string
}

// NewMirrorClient initializes a mirror client from the resolved settings.
func NewMirrorClient(st *Settings) (*MirrorClient, error) {
	if st.MirrorEndpoint == "" || st.MirrorBucket == "" || st.MirrorAccessKey == "" || st.MirrorSecretKey == "" {
		return nil, fmt.Errorf("mirror credentials missing in configuration (DEBFOUNDRY_MIRROR_ENDPOINT, DEBFOUNDRY_MIRROR_BUCKET, DEBFOUNDRY_MIRROR_ACCESS_KEY, DEBFOUNDRY_MIRROR_SECRET_KEY)")
	}

	options := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(st.MirrorAccessKey, st.MirrorSecretKey, "")),
		config.WithRegion(st.MirrorRegion),
	}

	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load mirror config: %w", err)
	}

	endpoint := st.MirrorEndpoint
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &MirrorClient{
		Client:     client,
		BucketName: st.MirrorBucket,
	}, nil
}

// DownloadFile fetches a file from the mirror.
func (m *MirrorClient) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	output, err := m.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer output.Body.Close()

	return io.ReadAll(output.Body)
}

// UploadFile uploads an in-memory file to the mirror.
func (m *MirrorClient) UploadFile(ctx context.Context, key string, body []byte) error {
	_, err := m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentTypeFor(key)),
	})
	return err
}

// UploadLocalFile uploads a file from disk, rendering a progress bar when
// stdout is a terminal.
func (m *MirrorClient) UploadLocalFile(ctx context.Context, key, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	var body io.Reader = file
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := progressbar.DefaultBytes(stat.Size(), key)
		body = io.TeeReader(file, bar)
	}

	_, err = m.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.BucketName),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(stat.Size()),
		ContentType:   aws.String(contentTypeFor(key)),
	})
	return err
}

// DeleteFile removes a file from the mirror.
func (m *MirrorClient) DeleteFile(ctx context.Context, key string) error {
	_, err := m.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(m.BucketName),
		Key:    aws.String(key),
	})
	return err
}

// MirrorObject represents metadata for an object on the mirror.
type MirrorObject struct {
	Key  string
	Size int64
}

// ListObjects returns the objects in the bucket with the given prefix.
func (m *MirrorClient) ListObjects(ctx context.Context, prefix string) ([]MirrorObject, error) {
	var objects []MirrorObject
	paginator := s3.NewListObjectsV2Paginator(m.Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.BucketName),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			objects = append(objects, MirrorObject{
				Key:  *obj.Key,
				Size: *obj.Size,
			})
		}
	}
	return objects, nil
}

func contentTypeFor(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(key, ".deb"):
		return "application/vnd.debian.binary-package"
	default:
		return "application/octet-stream"
	}
}
