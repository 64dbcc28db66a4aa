package client

import "context"

// WorkflowEngineInterface is the capability surface the orchestrator
// consumes from the external workflow engine.
type WorkflowEngineInterface interface {
	StartInstance(ctx context.Context, processKey string, variables map[string]string) (string, error)
	ListTasks(ctx context.Context, assignee string) ([]ApprovalTask, error)
	GetTaskVariables(ctx context.Context, taskID string) (map[string]string, error)
	CompleteTask(ctx context.Context, taskID string, variables map[string]string) error
	InstanceState(ctx context.Context, instanceID string) (InstanceState, error)
}

// GoldenRecordStoreInterface is the capability surface of the
// authoritative record store. Writes never fail on concurrent
// modification; conflict semantics belong to the orchestrator.
type GoldenRecordStoreInterface interface {
	Get(ctx context.Context, id string) (*GoldenRecord, error)
	Create(ctx context.Context, content map[string]any) (*GoldenRecord, error)
	Update(ctx context.Context, id string, content map[string]any) (*GoldenRecord, error)
}
