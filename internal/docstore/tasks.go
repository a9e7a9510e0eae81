package docstore

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"custody-go/internal/custody"
)

// taskBook records the outcome of uploads for stores that ingest
// synchronously, so they can honour the CreateDocument/VerifyDocument
// handshake of stores that ingest in the background.
type taskBook struct {
	mu    sync.Mutex
	tasks map[string]taskResult
}

type taskResult struct {
	documentID string
	err        error
}

func newTaskBook() *taskBook {
	return &taskBook{tasks: make(map[string]taskResult)}
}

// record stores the outcome of an upload and returns its task id.
func (b *taskBook) record(documentID string, err error) string {
	id := uuid.New().String()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks[id] = taskResult{documentID: documentID, err: err}
	return id
}

// resolve returns and forgets the outcome of a task.
func (b *taskBook) resolve(taskID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	res, ok := b.tasks[taskID]
	if !ok {
		return "", fmt.Errorf("task %s: %w", taskID, custody.ErrNotFound)
	}
	delete(b.tasks, taskID)
	return res.documentID, res.err
}
