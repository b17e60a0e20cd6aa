package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFinanceSnapshotRefresh rebuilds the cached finance overview snapshot.
	TaskFinanceSnapshotRefresh = "finance:snapshot:refresh"
	// TaskReceivablesDigest summarizes open receivables and aging for the log.
	TaskReceivablesDigest = "finance:receivables:digest"
)

// SnapshotRefreshPayload describes a finance snapshot refresh request.
type SnapshotRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewSnapshotRefreshTask constructs a finance snapshot refresh task.
func NewSnapshotRefreshTask(payload SnapshotRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFinanceSnapshotRefresh, data), nil
}

// ReceivablesDigestPayload describes a receivables digest request.
type ReceivablesDigestPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewReceivablesDigestTask constructs a receivables digest task.
func NewReceivablesDigestTask(payload ReceivablesDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceivablesDigest, data), nil
}
