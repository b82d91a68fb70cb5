// Package runner launches compute tasks for accepted jobs. A task carries
// its whole input as environment variables, so the compute image needs no
// callback to fetch parameters.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EnvVar is one environment variable passed to a compute task. Order is
// preserved end to end.
type EnvVar struct {
	Name  string
	Value string
}

// Task describes one compute task to launch.
type Task struct {
	JobID   uuid.UUID
	JobType string
	Env     []EnvVar
}

// Environ renders the task environment as KEY=VALUE strings. JOB_ID always
// comes first so the compute image can locate it without scanning.
func (t Task) Environ() []string {
	env := make([]string, 0, len(t.Env)+1)
	env = append(env, fmt.Sprintf("JOB_ID=%s", t.JobID))
	for _, v := range t.Env {
		env = append(env, fmt.Sprintf("%s=%s", v.Name, v.Value))
	}
	return env
}

// TaskRunner starts compute tasks and returns an opaque task identifier.
type TaskRunner interface {
	Start(ctx context.Context, task Task) (string, error)
}

// EnvName converts a submission field key into an environment variable name:
// uppercase, with every non-alphanumeric run collapsed to one underscore.
// "FP Input" becomes "FP_INPUT".
func EnvName(key string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
	for strings.Contains(mapped, "__") {
		mapped = strings.ReplaceAll(mapped, "__", "_")
	}
	return strings.Trim(mapped, "_")
}
