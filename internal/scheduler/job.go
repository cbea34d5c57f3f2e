package scheduler

import (
	"context"
	"time"
)

// Job is one unit of scheduled work (daily_collect, purge).
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Run returns nil for a run that needs no retry (휴장일 포함)
	Run(ctx context.Context) error

	// Schedule is a cron expression with a seconds field, evaluated in KST.
	// e.g. "0 0 18 * * 1-5" = 평일 18:00
	Schedule() string
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	RunID     string        `json:"run_id"`
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// maxHistory는 작업별로 보관하는 최근 실행 수
const maxHistory = 100

// JobHistory keeps the most recent maxHistory runs of one job, oldest first
type JobHistory struct {
	Results []JobResult
}

// Add appends a run and drops the oldest beyond maxHistory
func (h *JobHistory) Add(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - maxHistory; over > 0 {
		h.Results = h.Results[over:]
	}
}

// Latest returns a copy of the last n runs
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return append([]JobResult(nil), h.Results[len(h.Results)-n:]...)
}

// Counts returns the number of successful and failed runs kept
func (h *JobHistory) Counts() (succeeded, failed int) {
	for _, r := range h.Results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SuccessRate is 0 when the job has never run
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	succeeded, _ := h.Counts()
	return float64(succeeded) / float64(len(h.Results))
}
