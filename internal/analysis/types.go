package analysis

import (
	"context"
	"time"
)

// Status is the overall outcome of one analysis attempt.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusError    Status = "error"
)

// Verdict is a tri-state criterion outcome. VerdictUnknown means the parser
// could not locate the criterion's marker in the model's answer, which is
// distinct from the model saying the criterion was not met.
type Verdict string

const (
	VerdictTrue    Verdict = "true"
	VerdictFalse   Verdict = "false"
	VerdictUnknown Verdict = "unknown"
)

// CriterionVerdict holds the four merchandising checks extracted from the
// model's answer.
type CriterionVerdict struct {
	BrandVisible              Verdict `json:"brand_visible"`
	PriceTagVisible           Verdict `json:"price_tag_visible"`
	ProminenceOverCompetitors Verdict `json:"prominence_over_competitors"`
	Organized                 Verdict `json:"organized"`
}

func unknownCriteria() CriterionVerdict {
	return CriterionVerdict{
		BrandVisible:              VerdictUnknown,
		PriceTagVisible:           VerdictUnknown,
		ProminenceOverCompetitors: VerdictUnknown,
		Organized:                 VerdictUnknown,
	}
}

// Product is one target product the shelf should feature.
type Product struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Upload is one uploaded file part of an incoming request.
type Upload struct {
	Data        []byte
	ContentType string
}

// AnalysisRequest is a validated request, alive for one pipeline run.
type AnalysisRequest struct {
	Image    Upload
	Products []Product
}

// AnalysisResult is the structured verdict for one analysis. Status is always
// approved or pending; error is reserved for failures that happen before the
// model produced any text.
type AnalysisResult struct {
	Status        Status           `json:"status"`
	Criteria      CriterionVerdict `json:"criteria"`
	Detail        string           `json:"detail"`
	ExecutionTime float64          `json:"execution_time_seconds"`
	CostEstimate  float64          `json:"cost_estimate"`
}

// LogEntry is the durable record of one analysis attempt. Entries are append
// only; the store assigns a strictly increasing ID which is the sole ordering
// key for recency.
type LogEntry struct {
	ID            int64
	CreatedAt     time.Time
	Status        Status
	ProductNames  []string
	ExecutionTime float64
	CostEstimate  float64
	ErrorMessage  string
	Detail        string
	Criteria      *CriterionVerdict
}

// LogStore is the append-only persistence collaborator.
type LogStore interface {
	// Append inserts the entry and returns a copy with the store-assigned ID.
	Append(ctx context.Context, entry *LogEntry) (*LogEntry, error)
	// Query returns entries most-recent-ID first, at most limit entries
	// (limit <= 0 means unbounded). An empty status matches any status.
	Query(ctx context.Context, limit int, status Status) ([]LogEntry, error)
}

// StatsSnapshot is the derived usage summary, recomputed from the log on each
// request rather than kept as mutable counters.
type StatsSnapshot struct {
	TotalAnalyses        int     `json:"total_analyses"`
	SuccessfulAnalyses   int     `json:"successful_analyses"`
	TotalCost            float64 `json:"total_cost"`
	AverageExecutionTime float64 `json:"average_execution_time_seconds"`
}
