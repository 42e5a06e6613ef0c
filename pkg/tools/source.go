package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/reflexhq/reflex/pkg/models"
	"github.com/reflexhq/reflex/pkg/protocol"
)

// EmailSource reads inbox events through the mail tool server.
type EmailSource struct {
	caller protocol.ToolCaller
	logger *slog.Logger
}

func NewEmailSource(caller protocol.ToolCaller, logger *slog.Logger) *EmailSource {
	return &EmailSource{caller: caller, logger: logger.With("module", "email-source")}
}

func (s *EmailSource) Domain() models.TriggerType {
	return models.TriggerTypeEmail
}

func (s *EmailSource) Search(ctx context.Context, query string, maxResults int) ([]models.EventRecord, error) {
	result, err := s.caller.Call(ctx, "gmail", "search_emails", map[string]any{
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("email search failed: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("email search failed: %s", result.Error)
	}

	var reply struct {
		Emails []*models.EmailEvent `json:"emails"`
	}
	if err := decodeStructured(result.Structured, &reply); err != nil {
		return nil, fmt.Errorf("email search reply malformed: %w", err)
	}

	records := make([]models.EventRecord, len(reply.Emails))
	for i, email := range reply.Emails {
		records[i] = email
	}

	return records, nil
}

// ReviewSource reads code-review submissions through the code-host tool
// server.
type ReviewSource struct {
	caller protocol.ToolCaller
	logger *slog.Logger
}

func NewReviewSource(caller protocol.ToolCaller, logger *slog.Logger) *ReviewSource {
	return &ReviewSource{caller: caller, logger: logger.With("module", "review-source")}
}

func (s *ReviewSource) Domain() models.TriggerType {
	return models.TriggerTypeCodeReview
}

func (s *ReviewSource) Search(ctx context.Context, query string, maxResults int) ([]models.EventRecord, error) {
	result, err := s.caller.Call(ctx, "github", "search_reviews", map[string]any{
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("review search failed: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("review search failed: %s", result.Error)
	}

	var reply struct {
		Reviews []*models.ReviewEvent `json:"reviews"`
	}
	if err := decodeStructured(result.Structured, &reply); err != nil {
		return nil, fmt.Errorf("review search reply malformed: %w", err)
	}

	records := make([]models.EventRecord, len(reply.Reviews))
	for i, review := range reply.Reviews {
		records[i] = review
	}

	return records, nil
}

// decodeStructured round-trips a structured tool reply into a typed shape.
func decodeStructured(structured map[string]any, target any) error {
	raw, err := json.Marshal(structured)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, target)
}
