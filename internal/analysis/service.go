package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ModelTimeout bounds the wall-clock duration of one model call. On expiry
// the pending call is abandoned; the provider is not guaranteed to stop.
const ModelTimeout = 120 * time.Second

// DefaultCostPerAnalysis is the flat per-call estimate used when the provider
// reports no usage metadata.
const DefaultCostPerAnalysis = 0.0005

// Invoker sends a prompt and an image to the multimodal model and returns the
// raw response text plus a usage-based cost estimate (0 when the provider
// reported no usage). It performs no parsing.
type Invoker interface {
	Generate(ctx context.Context, prompt string, image []byte, mimeType string) (text string, costUSD float64, err error)
}

// Service runs the analysis pipeline: validate, build prompt, invoke the
// model under a timeout, parse, log. Stateless across requests.
type Service struct {
	invoker  Invoker
	store    LogStore
	template string
	timeout  time.Duration
}

// NewService creates the pipeline service with the default prompt template.
func NewService(invoker Invoker, store LogStore) *Service {
	return &Service{
		invoker:  invoker,
		store:    store,
		template: DefaultPromptTemplate,
		timeout:  ModelTimeout,
	}
}

// SetTemplate swaps the instruction template. Intended for configuration at
// startup, not per request.
func (s *Service) SetTemplate(template string) {
	if template != "" {
		s.template = template
	}
}

// Analyze runs one full pipeline pass. Every attempt, including a failed one,
// produces exactly one log entry; log write failures are reported to the
// operator log and never change the outcome returned to the caller.
func (s *Service) Analyze(ctx context.Context, uploads map[string]Upload, productsPayload []byte) (*AnalysisResult, error) {
	start := time.Now()

	req, err := ValidateRequest(uploads, productsPayload)
	if err != nil {
		var inv *InvalidInputError
		var names []string
		if errors.As(err, &inv) {
			names = inv.ProductNames
		}
		s.logAttempt(ctx, &LogEntry{
			Status:        StatusError,
			ProductNames:  names,
			ExecutionTime: time.Since(start).Seconds(),
			ErrorMessage:  err.Error(),
		})
		return nil, err
	}

	names := make([]string, len(req.Products))
	for i, p := range req.Products {
		names[i] = p.Name
	}

	prompt := BuildPrompt(s.template, req.Products)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, cost, err := s.invoker.Generate(callCtx, prompt, req.Image.Data, req.Image.ContentType)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = ErrUpstreamTimeout
		} else {
			err = &UpstreamError{Err: err}
		}
		s.logAttempt(ctx, &LogEntry{
			Status:        StatusError,
			ProductNames:  names,
			ExecutionTime: time.Since(start).Seconds(),
			CostEstimate:  cost,
			ErrorMessage:  err.Error(),
		})
		return nil, err
	}

	result := ParseResponse(raw)
	result.ExecutionTime = time.Since(start).Seconds()
	if cost <= 0 {
		cost = DefaultCostPerAnalysis
	}
	result.CostEstimate = cost

	criteria := result.Criteria
	s.logAttempt(ctx, &LogEntry{
		Status:        result.Status,
		ProductNames:  names,
		ExecutionTime: result.ExecutionTime,
		CostEstimate:  result.CostEstimate,
		Detail:        result.Detail,
		Criteria:      &criteria,
	})

	return &result, nil
}

func (s *Service) logAttempt(ctx context.Context, entry *LogEntry) {
	if _, err := s.store.Append(ctx, entry); err != nil {
		log.Error().Err(err).Str("status", string(entry.Status)).Msg("failed to write analysis log entry")
	}
}
