package docstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/kurin/blazer/b2"

	"custody-go/internal/custody"
)

// B2Store keeps documents in a Backblaze B2 bucket with the same layout as
// S3Store.
type B2Store struct {
	name   string
	prefix string
	bucket *b2.Bucket
	tasks  *taskBook
}

// NewB2Store authorizes against B2 and opens the named bucket.
func NewB2Store(ctx context.Context, name, bucketName, prefix, keyID, applicationKey string) (*B2Store, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("b2 store requires a bucket")
	}
	if keyID == "" || applicationKey == "" {
		return nil, fmt.Errorf("b2 store requires a key id and application key")
	}

	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("authorizing b2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("opening b2 bucket %s: %w", bucketName, err)
	}

	return &B2Store{
		name:   name,
		prefix: prefix,
		bucket: bucket,
		tasks:  newTaskBook(),
	}, nil
}

func (s *B2Store) Name() string {
	return s.name
}

func (s *B2Store) key(parts ...string) string {
	return path.Join(append([]string{s.prefix}, parts...)...)
}

func (s *B2Store) CreateCorrespondent(ctx context.Context, name string) (string, error) {
	return s.createLabel(ctx, "correspondent", name)
}

func (s *B2Store) CreateTag(ctx context.Context, name string) (string, error) {
	return s.createLabel(ctx, "tag", name)
}

func (s *B2Store) createLabel(ctx context.Context, kind, name string) (string, error) {
	id := kind + "-" + uuid.New().String()
	if err := s.put(ctx, s.key("labels", id), []byte(name), nil); err != nil {
		return "", fmt.Errorf("creating %s %q: %w", kind, name, err)
	}
	return id, nil
}

func (s *B2Store) put(ctx context.Context, key string, data []byte, info map[string]string) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	if info != nil {
		w = w.WithAttrs(&b2.Attrs{Info: info})
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// CreateDocument uploads the content unless an object with the same
// checksum already exists, which VerifyDocument reports as a duplicate.
func (s *B2Store) CreateDocument(ctx context.Context, upload custody.DocumentUpload) (string, error) {
	if err := s.checkLabels(ctx, upload); err != nil {
		return "", err
	}

	id := contentID(upload.Content)
	obj := s.bucket.Object(s.key("documents", id))

	_, err := obj.Attrs(ctx)
	if err == nil {
		return s.tasks.record("", fmt.Errorf("content matches document %s: %w", id, custody.ErrDuplicateDocument)), nil
	}
	if !b2.IsNotExist(err) {
		return "", fmt.Errorf("checking for existing document: %w", err)
	}

	if err := s.put(ctx, s.key("documents", id), upload.Content, documentMetadata(upload)); err != nil {
		return "", fmt.Errorf("uploading %q: %w", upload.Title, err)
	}
	return s.tasks.record(id, nil), nil
}

func (s *B2Store) checkLabels(ctx context.Context, upload custody.DocumentUpload) error {
	for _, id := range labelIDs(upload) {
		if strings.Contains(id, "/") {
			return fmt.Errorf("invalid label id %q: %w", id, custody.ErrInvalidArgument)
		}
		if _, err := s.bucket.Object(s.key("labels", id)).Attrs(ctx); err != nil {
			if b2.IsNotExist(err) {
				return fmt.Errorf("unknown label %s: %w", id, custody.ErrNotFound)
			}
			return fmt.Errorf("checking label %s: %w", id, err)
		}
	}
	return nil
}

func (s *B2Store) VerifyDocument(ctx context.Context, taskID string) (string, error) {
	return s.tasks.resolve(taskID)
}

func (s *B2Store) DownloadDocument(ctx context.Context, documentID string) ([]byte, string, error) {
	obj := s.bucket.Object(s.key("documents", documentID))
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		if b2.IsNotExist(err) {
			return nil, "", fmt.Errorf("document %s: %w", documentID, custody.ErrNotFound)
		}
		return nil, "", fmt.Errorf("reading attributes of document %s: %w", documentID, err)
	}

	r := obj.NewReader(ctx)
	defer r.Close()
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("downloading document %s: %w", documentID, err)
	}

	return content, metadataTitle(attrs.Info), nil
}

// ValidateSetup checks that the bucket attributes can be read.
func (s *B2Store) ValidateSetup(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("b2 bucket not accessible: %w", err)
	}
	return nil
}

// Compile-time check that B2Store implements custody.DocumentStore interface
var _ custody.DocumentStore = (*B2Store)(nil)
