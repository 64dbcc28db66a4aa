package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/pesio-ai/be-plan-approvals/internal/errors"
	"github.com/pesio-ai/be-plan-approvals/internal/httpclient"
)

// RecordClient is a client for the golden record store. Resources are
// versioned: every write returns a fresh meta.versionId. The client stays
// deliberately dumb — it never checks versions; conflict semantics live in
// the orchestrator.
type RecordClient struct {
	client *httpclient.Client
}

// RecordConfig configures the record client. BaseURL points at the
// resource collection (e.g. ".../fhir/InsurancePlan").
type RecordConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

// NewRecordClient creates a golden record store client.
func NewRecordClient(cfg RecordConfig) *RecordClient {
	opts := []httpclient.Option{}
	if cfg.Timeout > 0 {
		opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, httpclient.WithMaxAttempts(cfg.MaxAttempts))
	}
	return &RecordClient{client: httpclient.NewClient(cfg.BaseURL, opts...)}
}

// recordResource is the store's wire shape.
type recordResource struct {
	ID      string         `json:"id,omitempty"`
	Meta    *recordMeta    `json:"meta,omitempty"`
	Status  string         `json:"status,omitempty"`
	Content map[string]any `json:"content,omitempty"`
}

type recordMeta struct {
	VersionID string `json:"versionId"`
}

// Get fetches a record by id. Returns (nil, nil) when the record does not
// exist; absence is an expected outcome, not an error.
func (c *RecordClient) Get(ctx context.Context, id string) (*GoldenRecord, error) {
	var resp recordResource
	if err := c.client.Get(ctx, "/"+url.PathEscape(id), &resp); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to fetch golden record")
	}
	return toGoldenRecord(&resp), nil
}

// Create writes a new record and returns it with its first version token.
func (c *RecordClient) Create(ctx context.Context, content map[string]any) (*GoldenRecord, error) {
	var resp recordResource
	if err := c.client.Post(ctx, "", recordResource{Status: "active", Content: content}, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create golden record")
	}
	return toGoldenRecord(&resp), nil
}

// Update overwrites a record's content and returns the new version token.
// The store never rejects a write because someone else wrote last.
func (c *RecordClient) Update(ctx context.Context, id string, content map[string]any) (*GoldenRecord, error) {
	var resp recordResource
	body := recordResource{ID: id, Status: "active", Content: content}
	if err := c.client.Put(ctx, "/"+url.PathEscape(id), body, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable,
			fmt.Sprintf("failed to update golden record %s", id))
	}
	return toGoldenRecord(&resp), nil
}

func toGoldenRecord(resp *recordResource) *GoldenRecord {
	record := &GoldenRecord{
		ID:      resp.ID,
		Content: resp.Content,
		Status:  resp.Status,
	}
	if resp.Meta != nil {
		record.Version = NewVersionToken(resp.Meta.VersionID)
	}
	return record
}
