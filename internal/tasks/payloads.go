package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// This file defines the "types" and "payloads" for our async tasks.

// Task type names
const (
	TypeTaskArchiveAccounts = "task:archive_accounts"
)

// ArchiveAccountsPayload is the data an archive run needs. A nil page size
// falls back to the configured one.
type ArchiveAccountsPayload struct {
	PageSize *int `json:"page_size"`
}

// NewArchiveAccountsTask creates a new task for asynq. Runs are never retried
// by the queue; the next scheduled run starts over.
func NewArchiveAccountsTask(pageSize *int) (*asynq.Task, error) {
	payload := ArchiveAccountsPayload{
		PageSize: pageSize,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TypeTaskArchiveAccounts, payloadBytes, asynq.MaxRetry(0)), nil
}
