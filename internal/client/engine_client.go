package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pesio-ai/be-plan-approvals/internal/errors"
	"github.com/pesio-ai/be-plan-approvals/internal/httpclient"
)

// EngineClient is a client for the workflow engine's REST API. All calls
// are retried with bounded backoff by the underlying HTTP client; failures
// that survive the retries surface as ENGINE_UNAVAILABLE.
type EngineClient struct {
	client     *httpclient.Client
	processKey string
}

// EngineConfig configures the engine client.
type EngineConfig struct {
	BaseURL     string
	ProcessKey  string
	Timeout     time.Duration
	MaxAttempts int
}

// NewEngineClient creates a workflow engine client.
func NewEngineClient(cfg EngineConfig) *EngineClient {
	opts := []httpclient.Option{}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, httpclient.WithMaxAttempts(cfg.MaxAttempts))
	}
	return &EngineClient{
		client:     httpclient.NewClient(cfg.BaseURL, opts...),
		processKey: cfg.ProcessKey,
	}
}

type startInstanceRequest struct {
	Variables engineVariables `json:"variables"`
}

type startInstanceResponse struct {
	ID string `json:"id"`
}

// StartInstance starts a workflow instance for the configured process key
// and returns the new instance id.
func (c *EngineClient) StartInstance(ctx context.Context, processKey string, variables map[string]string) (string, error) {
	if processKey == "" {
		processKey = c.processKey
	}

	var resp startInstanceResponse
	path := fmt.Sprintf("/process-definition/key/%s/start", url.PathEscape(processKey))
	if err := c.client.Post(ctx, path, startInstanceRequest{Variables: encodeVariables(variables)}, &resp); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEngineUnavailable, "failed to start workflow instance")
	}
	return resp.ID, nil
}

type taskResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Assignee          string `json:"assignee"`
	ProcessInstanceID string `json:"processInstanceId"`
}

// ListTasks returns the open tasks for an assignee within the configured
// process definition. The returned tasks carry no variables; use
// GetTaskVariables for the submission snapshot.
func (c *EngineClient) ListTasks(ctx context.Context, assignee string) ([]ApprovalTask, error) {
	query := url.Values{"processDefinitionKey": {c.processKey}}
	if assignee != "" {
		query.Set("assignee", assignee)
	}

	var resp []taskResponse
	if err := c.client.Get(ctx, "/task?"+query.Encode(), &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEngineUnavailable, "failed to list tasks")
	}

	tasks := make([]ApprovalTask, 0, len(resp))
	for _, t := range resp {
		tasks = append(tasks, ApprovalTask{
			TaskID:            t.ID,
			ProcessInstanceID: t.ProcessInstanceID,
			Name:              t.Name,
			Assignee:          t.Assignee,
		})
	}
	return tasks, nil
}

// GetTaskVariables returns the task's variable snapshot as a flat map.
// A 404 maps to NOT_FOUND so callers can treat stale task ids as no-ops.
func (c *EngineClient) GetTaskVariables(ctx context.Context, taskID string) (map[string]string, error) {
	var resp engineVariables
	path := fmt.Sprintf("/task/%s/variables", url.PathEscape(taskID))
	if err := c.client.Get(ctx, path, &resp); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, errors.NotFound("task", taskID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeEngineUnavailable, "failed to read task variables")
	}
	return decodeVariables(resp), nil
}

type completeTaskRequest struct {
	Variables engineVariables `json:"variables"`
}

// CompleteTask completes a task, attaching the given output variables.
// A 404 maps to NOT_FOUND: the task was already completed, and retried
// requests must not double-apply an approval.
func (c *EngineClient) CompleteTask(ctx context.Context, taskID string, variables map[string]string) error {
	path := fmt.Sprintf("/task/%s/complete", url.PathEscape(taskID))
	if err := c.client.Post(ctx, path, completeTaskRequest{Variables: encodeVariables(variables)}, nil); err != nil {
		if httpclient.IsNotFound(err) {
			return errors.NotFound("task", taskID)
		}
		return errors.Wrap(err, errors.ErrCodeEngineUnavailable, "failed to complete task")
	}
	return nil
}

// InstanceState probes a workflow instance. The engine deletes finished
// instances instead of marking them closed, so a 404 is the defined
// completion signal. Probe failures return Unknown; callers must not
// treat Unknown as either outcome.
func (c *EngineClient) InstanceState(ctx context.Context, instanceID string) (InstanceState, error) {
	path := fmt.Sprintf("/process-instance/%s", url.PathEscape(instanceID))
	if err := c.client.Get(ctx, path, nil); err != nil {
		if httpclient.IsNotFound(err) {
			return InstanceCompleted, nil
		}
		return InstanceUnknown, errors.Wrap(err, errors.ErrCodeEngineUnavailable, "failed to probe instance")
	}
	return InstanceActive, nil
}
