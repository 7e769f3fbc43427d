package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// TriggerRequest is the payload handed to the worker. Either ImageBase64 is
// set inline or BlobKey points at the shuttled image in the cache.
type TriggerRequest struct {
	JobID       uuid.UUID `json:"job_id"`
	ImageBase64 string    `json:"image_base64,omitempty"`
	BlobKey     string    `json:"blob_key,omitempty"`
	MimeType    string    `json:"mime_type"`
}

// Trigger dispatches a job to the worker. The acknowledgment only means the
// work was accepted, never that it completed.
type Trigger interface {
	Trigger(ctx context.Context, req TriggerRequest) error
}

// TriggerClient invokes the worker endpoint over HTTP with a service key.
type TriggerClient struct {
	workerURL  string
	serviceKey string
	httpClient *http.Client
}

func NewTriggerClient(workerURL, serviceKey string) *TriggerClient {
	return &TriggerClient{
		workerURL:  workerURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (t *TriggerClient) Trigger(ctx context.Context, req TriggerRequest) error {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", t.workerURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("X-Service-Key", t.serviceKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("worker rejected trigger: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}
