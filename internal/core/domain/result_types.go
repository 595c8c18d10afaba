package domain

import "time"

type Action string

const (
	ActionCreateTags     Action = "create_tags"
	ActionRename         Action = "rename"
	ActionCreateSnapshot Action = "create_snapshot"
	ActionDeleteSnapshot Action = "delete_snapshot"
	ActionMigrateProject Action = "migrate_project"
	ActionPutGroup       Action = "put_group"
	ActionNotify         Action = "notify"
	ActionForward        Action = "forward"
)

// TaskResult is the outcome of one dispatched mutation. A nil Err is success.
type TaskResult struct {
	Action   Action
	Kind     ResourceKind
	Resource string
	Region   string
	Detail   string
	Err      error
}

func (r TaskResult) Succeeded() bool { return r.Err == nil }

// Report summarises one handler invocation.
type Report struct {
	Task       string
	StartedAt  time.Time
	FinishedAt time.Time
	Inventory  map[ResourceKind]int
	Skipped    int
	Results    []TaskResult
	Partial    []string
	Notices    []string
}

func NewReport(task string, started time.Time) *Report {
	return &Report{
		Task:      task,
		StartedAt: started,
		Inventory: map[ResourceKind]int{},
	}
}

func (r *Report) Add(results ...TaskResult) {
	r.Results = append(r.Results, results...)
}

// Count returns how many results of the action succeeded and failed.
func (r *Report) Count(action Action) (succeeded, failed int) {
	for _, res := range r.Results {
		if res.Action != action {
			continue
		}
		if res.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

func (r *Report) Failures() []TaskResult {
	var out []TaskResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Response is the HTTP-shaped value every handler hands back to the platform.
type Response struct {
	StatusCode      int               `json:"statusCode"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	Body            string            `json:"body"`
	Headers         map[string]string `json:"headers"`
}
