// Package provider talks to the external task-list provider. The provider
// treats done as terminal: update is refused for tasks it considers done,
// only create and delete remain. The RestorationAdapter bridges that gap.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/models"
)

// ErrDoneImmutable is returned by Update when the provider refuses to
// mutate a task it considers done.
var ErrDoneImmutable = errors.New("provider refuses to update a done task")

// TaskProvider is the provider surface the services depend on.
type TaskProvider interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) (*models.Task, error)
	Delete(ctx context.Context, externalID string) error
}

// Client is the HTTP implementation of TaskProvider.
type Client struct {
	BaseURL string
	Token   string
	DryRun  bool // no HTTP calls, log and echo back
	client  *http.Client
}

func NewClient(baseURL, token string, dryRun bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		DryRun:  dryRun,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if c.DryRun {
		log.Printf("[provider][create][dry-run] id=%s title=%q", task.ID, task.Title)
		out := task.Clone()
		out.ExternalID = "dry-" + uuid.NewString()
		return out, nil
	}
	return c.do(ctx, http.MethodPost, c.BaseURL+"/tasks", task)
}

func (c *Client) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.ExternalID == "" {
		return nil, fmt.Errorf("task %s has no external id", task.ID)
	}
	if c.DryRun {
		log.Printf("[provider][update][dry-run] id=%s external=%s status=%s", task.ID, task.ExternalID, task.Status)
		return task.Clone(), nil
	}
	return c.do(ctx, http.MethodPut, c.BaseURL+"/tasks/"+task.ExternalID, task)
}

func (c *Client) Delete(ctx context.Context, externalID string) error {
	if c.DryRun {
		log.Printf("[provider][delete][dry-run] external=%s", externalID)
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+"/tasks/"+externalID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider delete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider delete: status=%d body=%s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, task *models.Task) (*models.Task, error) {
	b, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	// The provider answers 409 when a done task is touched.
	if resp.StatusCode == http.StatusConflict {
		return nil, ErrDoneImmutable
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider %s: status=%d body=%s", method, resp.StatusCode, string(body))
	}

	var out models.Task
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("provider %s: parse response: %w", method, err)
	}
	return &out, nil
}
