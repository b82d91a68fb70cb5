// Package artifacts reads compute task results from object storage. The
// service never writes artifacts; compute tasks upload them under a fixed
// key layout and the service only reads, lists and presigns them.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound marks a missing artifact. Callers use it to distinguish "not
// ready yet" from real failures.
var ErrNotFound = errors.New("artifact not found")

// Object describes one stored artifact.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// Store is the read-side view of the results bucket.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	PresignGet(ctx context.Context, key string) (string, error)
	List(ctx context.Context, prefix string, limit int) ([]Object, error)
}

// ResultKey returns the bucket key a compute task uploads its result under.
func ResultKey(jobType string, jobID uuid.UUID) string {
	return fmt.Sprintf("results/%s-%s.json", jobType, jobID)
}

// ResultPrefix is the common prefix of all result artifacts.
const ResultPrefix = "results/"
