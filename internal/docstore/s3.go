package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"custody-go/internal/custody"
)

// S3Options configures an S3Store.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional, for S3-compatible services
	AccessKeyID     string // optional, falls back to the default credential chain
	SecretAccessKey string
}

// S3Store keeps documents as objects in an S3 bucket, using the same
// content-addressed layout as FileSystemStore:
//
//	<prefix>/documents/<checksum>  (title and labels in object metadata)
//	<prefix>/labels/<id>
type S3Store struct {
	name     string
	bucket   string
	prefix   string
	client   S3Client
	uploader *manager.Uploader
	tasks    *taskBook
}

// S3Client is the subset of the S3 API the store uses. *s3.Client satisfies it.
type S3Client interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var _ S3Client = (*s3.Client)(nil)

// NewS3Store builds an S3 client from opts.
func NewS3Store(ctx context.Context, name string, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 store requires a bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3StoreWithClient(name, opts.Bucket, opts.Prefix, client), nil
}

// NewS3StoreWithClient wraps an already configured client.
func NewS3StoreWithClient(name, bucket, prefix string, client S3Client) *S3Store {
	return &S3Store{
		name:     name,
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		uploader: manager.NewUploader(client),
		tasks:    newTaskBook(),
	}
}

func (s *S3Store) Name() string {
	return s.name
}

func (s *S3Store) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

func (s *S3Store) CreateCorrespondent(ctx context.Context, name string) (string, error) {
	return s.createLabel(ctx, "correspondent", name)
}

func (s *S3Store) CreateTag(ctx context.Context, name string) (string, error) {
	return s.createLabel(ctx, "tag", name)
}

func (s *S3Store) createLabel(ctx context.Context, kind, name string) (string, error) {
	id := kind + "-" + uuid.New().String()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key("labels", id)),
		Body:   bytes.NewReader([]byte(name)),
	})
	if err != nil {
		return "", fmt.Errorf("creating %s %q: %w", kind, name, err)
	}
	return id, nil
}

// CreateDocument uploads the content unless an object with the same
// checksum already exists, which VerifyDocument reports as a duplicate.
func (s *S3Store) CreateDocument(ctx context.Context, upload custody.DocumentUpload) (string, error) {
	if err := s.checkLabels(ctx, upload); err != nil {
		return "", err
	}

	id := contentID(upload.Content)
	key := s.key("documents", id)

	exists, err := s.exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("checking for existing document: %w", err)
	}
	if exists {
		return s.tasks.record("", fmt.Errorf("content matches document %s: %w", id, custody.ErrDuplicateDocument)), nil
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(upload.Content),
		Metadata: documentMetadata(upload),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %q: %w", upload.Title, err)
	}
	return s.tasks.record(id, nil), nil
}

func (s *S3Store) checkLabels(ctx context.Context, upload custody.DocumentUpload) error {
	for _, id := range labelIDs(upload) {
		if strings.Contains(id, "/") {
			return fmt.Errorf("invalid label id %q: %w", id, custody.ErrInvalidArgument)
		}
		exists, err := s.exists(ctx, s.key("labels", id))
		if err != nil {
			return fmt.Errorf("checking label %s: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("unknown label %s: %w", id, custody.ErrNotFound)
		}
	}
	return nil
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}

func (s *S3Store) VerifyDocument(ctx context.Context, taskID string) (string, error) {
	return s.tasks.resolve(taskID)
}

func (s *S3Store) DownloadDocument(ctx context.Context, documentID string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key("documents", documentID)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, "", fmt.Errorf("document %s: %w", documentID, custody.ErrNotFound)
		}
		return nil, "", fmt.Errorf("downloading document %s: %w", documentID, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading document %s: %w", documentID, err)
	}
	return content, metadataTitle(out.Metadata), nil
}

// ValidateSetup checks that the bucket exists and is accessible.
func (s *S3Store) ValidateSetup(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", s.bucket, err)
	}
	return nil
}

// Compile-time check that S3Store implements custody.DocumentStore interface
var _ custody.DocumentStore = (*S3Store)(nil)
