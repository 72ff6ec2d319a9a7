package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tunelab-ai/studio/pkg/common/logger"
	"github.com/tunelab-ai/studio/pkg/common/models"
	"github.com/tunelab-ai/studio/pkg/studio"
)

// Client talks to the external fine-tuning service. Submission is a single
// request/response exchange with no retry policy; a failure is terminal for
// that attempt and surfaces to the caller.
type Client struct {
	client  *http.Client
	baseURL string
}

func NewClient(client *http.Client, baseURL string) *Client {
	return &Client{client: client, baseURL: baseURL}
}

// Submit posts the flat payload and returns the trainer's message verbatim.
func (c *Client) Submit(ctx context.Context, payload studio.SubmissionPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: encode payload: %v", studio.ErrSubmissionFailed, err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/finetune/start", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", studio.ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		logger.Log.WithError(err).Error("fine-tune submission failed")
		return "", fmt.Errorf("%w: %v", studio.ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: trainer returned %d: %s", studio.ErrSubmissionFailed, resp.StatusCode, bytes.TrimSpace(detail))
	}

	var message models.Message
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", studio.ErrSubmissionFailed, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"model":   payload.ModelName,
		"dataset": payload.DatasetName,
	}).Info("Fine-tune job submitted")
	return message.Message, nil
}

// Status fetches the trainer's view of a running job.
func (c *Client) Status(ctx context.Context, jobID string) (map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/api/v1/finetune/status/%s", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trainer returned %d for job %s", resp.StatusCode, jobID)
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return status, nil
}

// Stop asks the trainer to cancel a running job.
func (c *Client) Stop(ctx context.Context, jobID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/finetune/stop/%s", c.baseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("trainer returned %d for job %s", resp.StatusCode, jobID)
	}

	var message models.Message
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return "", err
	}
	return message.Message, nil
}
