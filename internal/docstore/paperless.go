package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"custody-go/internal/custody"
)

// DefaultPaperlessPollInterval is how often VerifyDocument asks Paperless
// for the state of an ingestion task.
const DefaultPaperlessPollInterval = 2 * time.Second

// Task states Paperless reports while ingestion is still running.
var paperlessPendingStates = map[string]bool{
	"":        true,
	"PENDING": true,
	"STARTED": true,
	"RETRY":   true,
	"UNKNOWN": true,
}

// PaperlessStore talks to a Paperless-ngx instance over its REST API.
type PaperlessStore struct {
	name         string
	baseURL      *url.URL
	token        string
	pollInterval time.Duration
	client       *http.Client
}

// NewPaperlessStore creates a store for the Paperless instance at baseURL.
// A zero pollInterval selects DefaultPaperlessPollInterval.
func NewPaperlessStore(name, baseURL, token string, pollInterval time.Duration) (*PaperlessStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("paperless store requires a base url")
	}
	if token == "" {
		return nil, fmt.Errorf("paperless store requires an api token")
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing paperless url: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = DefaultPaperlessPollInterval
	}
	return &PaperlessStore{
		name:         name,
		baseURL:      u,
		token:        token,
		pollInterval: pollInterval,
		client:       &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

func (p *PaperlessStore) Name() string {
	return p.name
}

type paperlessLabel struct {
	Name              string `json:"name"`
	Color             string `json:"color,omitempty"`
	Match             string `json:"match"`
	MatchingAlgorithm int    `json:"matching_algorithm"`
	IsInsensitive     bool   `json:"is_insensitive"`
	IsInboxTag        *bool  `json:"is_inbox_tag,omitempty"`
}

type paperlessCreated struct {
	ID int64 `json:"id"`
}

type paperlessTask struct {
	TaskID          string `json:"task_id"`
	Status          string `json:"status"`
	Result          string `json:"result"`
	RelatedDocument *int64 `json:"related_document"`
}

// CreateCorrespondent registers a correspondent with automatic matching disabled.
func (p *PaperlessStore) CreateCorrespondent(ctx context.Context, name string) (string, error) {
	return p.createLabel(ctx, "api/correspondents/", paperlessLabel{Name: name})
}

// CreateTag registers a tag with automatic matching disabled.
func (p *PaperlessStore) CreateTag(ctx context.Context, name string) (string, error) {
	inbox := false
	return p.createLabel(ctx, "api/tags/", paperlessLabel{Name: name, Color: "#a6cee3", IsInboxTag: &inbox})
}

func (p *PaperlessStore) createLabel(ctx context.Context, path string, label paperlessLabel) (string, error) {
	body, err := json.Marshal(label)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	var created paperlessCreated
	if err := p.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(body), &created); err != nil {
		return "", fmt.Errorf("creating %q: %w", label.Name, err)
	}
	return fmt.Sprint(created.ID), nil
}

// CreateDocument posts the content for consumption and returns the task id.
func (p *PaperlessStore) CreateDocument(ctx context.Context, upload custody.DocumentUpload) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("document", upload.Title)
	if err != nil {
		return "", fmt.Errorf("creating multipart body: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return "", fmt.Errorf("writing multipart body: %w", err)
	}
	fields := [][2]string{{"title", upload.Title}}
	if upload.CorrespondentID != "" {
		fields = append(fields, [2]string{"correspondent", upload.CorrespondentID})
	}
	for _, tag := range upload.TagIDs {
		fields = append(fields, [2]string{"tags", tag})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing multipart body: %w", err)
	}

	var taskID string
	if err := p.do(ctx, http.MethodPost, "api/documents/post_document/", mw.FormDataContentType(), &body, &taskID); err != nil {
		return "", fmt.Errorf("uploading %q: %w", upload.Title, err)
	}
	if taskID == "" {
		return "", fmt.Errorf("uploading %q: empty task id", upload.Title)
	}
	return taskID, nil
}

// VerifyDocument polls the task until Paperless finishes consuming the upload.
func (p *PaperlessStore) VerifyDocument(ctx context.Context, taskID string) (string, error) {
	path := "api/tasks/?task_id=" + url.QueryEscape(taskID)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		var tasks []paperlessTask
		if err := p.do(ctx, http.MethodGet, path, "", nil, &tasks); err != nil {
			return "", fmt.Errorf("checking task %s: %w", taskID, err)
		}

		status := ""
		if len(tasks) > 0 {
			status = strings.ToUpper(tasks[0].Status)
		}
		if !paperlessPendingStates[status] {
			task := tasks[0]
			switch status {
			case "SUCCESS":
				if task.RelatedDocument == nil {
					return "", fmt.Errorf("task %s succeeded without a document", taskID)
				}
				return fmt.Sprint(*task.RelatedDocument), nil
			case "FAILURE":
				if strings.Contains(strings.ToLower(task.Result), "duplicate") {
					return "", fmt.Errorf("task %s: %s: %w", taskID, task.Result, custody.ErrDuplicateDocument)
				}
				return "", fmt.Errorf("task %s failed: %s", taskID, task.Result)
			default:
				return "", fmt.Errorf("task %s ended in state %s", taskID, status)
			}
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// DownloadDocument fetches the original file and the name Paperless gives it.
func (p *PaperlessStore) DownloadDocument(ctx context.Context, documentID string) ([]byte, string, error) {
	path := "api/documents/" + url.PathEscape(documentID) + "/download/?original=true"
	resp, err := p.send(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, "", fmt.Errorf("downloading document %s: %w", documentID, err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading document %s: %w", documentID, err)
	}

	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return content, filename, nil
}

// ValidateSetup checks that the API root answers with the configured token.
func (p *PaperlessStore) ValidateSetup(ctx context.Context) error {
	resp, err := p.send(ctx, http.MethodGet, "api/", "", nil)
	if err != nil {
		return fmt.Errorf("paperless not reachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// do sends a request and decodes the JSON response into out.
func (p *PaperlessStore) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	resp, err := p.send(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// send issues an authenticated request and fails on any non-2xx status.
func (p *PaperlessStore) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing path %q: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL.ResolveReference(ref).String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
		if resp.StatusCode == http.StatusNotFound {
			err = errors.Join(err, custody.ErrNotFound)
		}
		return nil, err
	}
	return resp, nil
}

// Compile-time check that PaperlessStore implements custody.DocumentStore interface
var _ custody.DocumentStore = (*PaperlessStore)(nil)
