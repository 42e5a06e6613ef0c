package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/reflexhq/reflex/pkg/models"
)

// ActionTypeClassify reads a message, classifies it into one of a closed set
// of caller-supplied categories via a structured generative call, and applies
// the label mapped from the winning category.
const ActionTypeClassify = "email.classify"

const (
	classifyServer    = "gmail"
	classifyFetchTool = "get_email"
	classifyLabelTool = "add_label"
)

func (r *Router) executeClassify(ctx context.Context, actionID string, params map[string]any, dryRun bool, start time.Time) models.ActionResult {
	messageID, _ := params["message_id"].(string)
	if messageID == "" {
		return failedResult(actionID, start, "classify: missing message_id")
	}

	categories := stringSlice(params["categories"])
	if len(categories) == 0 {
		return failedResult(actionID, start, "classify: no categories supplied")
	}

	labels := stringMap(params["labels"])

	if dryRun {
		output := map[string]any{
			"dry_run":       true,
			"would_execute": classifyServer + "." + classifyFetchTool + " -> classify -> " + classifyServer + "." + classifyLabelTool,
			"description":   fmt.Sprintf("Would classify message %s into one of %v and apply the mapped label", messageID, categories),
			"message_id":    messageID,
			"categories":    categories,
		}

		return models.ActionResult{
			ActionID: actionID,
			Status:   models.ActionStatusSuccess,
			Output:   output,
			Duration: time.Since(start),
		}
	}

	if r.completer == nil {
		return failedResult(actionID, start, "classify: no completion provider configured")
	}

	fetched, err := r.tools.Call(ctx, classifyServer, classifyFetchTool, map[string]any{"message_id": messageID})
	if err != nil {
		return failedResult(actionID, start, fmt.Sprintf("classify: fetch failed: %v", err))
	}

	if !fetched.Success {
		return failedResult(actionID, start, fmt.Sprintf("classify: fetch failed: %s", fetched.Error))
	}

	prompt := buildClassifyPrompt(fetched.Text(), fetched.Structured, categories)
	schema := classificationSchema(categories)

	reply, err := r.completer.CompleteStructured(ctx, prompt, schema, 0)
	if err != nil {
		return failedResult(actionID, start, fmt.Sprintf("classify: completion failed: %v", err))
	}

	if err := validateClassification(schema, reply); err != nil {
		return failedResult(actionID, start, fmt.Sprintf("classify: invalid completion: %v", err))
	}

	category, _ := reply["category"].(string)
	if !containsString(categories, category) {
		return failedResult(actionID, start, fmt.Sprintf("classify: category %q not in supplied set", category))
	}

	label := labels[category]
	if label == "" {
		label = category
	}

	applied, err := r.tools.Call(ctx, classifyServer, classifyLabelTool, map[string]any{
		"message_id": messageID,
		"label":      label,
	})
	if err != nil {
		return failedResult(actionID, start, fmt.Sprintf("classify: label failed: %v", err))
	}

	if !applied.Success {
		return failedResult(actionID, start, fmt.Sprintf("classify: label failed: %s", applied.Error))
	}

	output := map[string]any{
		"message_id": messageID,
		"category":   category,
		"label":      label,
	}

	if confidence, ok := reply["confidence"].(float64); ok {
		output["confidence"] = confidence
	}

	if reasoning, ok := reply["reasoning"].(string); ok && reasoning != "" {
		output["reasoning"] = reasoning
	}

	return models.ActionResult{
		ActionID: actionID,
		Status:   models.ActionStatusSuccess,
		Output:   output,
		Duration: time.Since(start),
	}
}

// classificationSchema constrains the completion to exactly one category
// from the supplied set, plus a confidence and rationale.
func classificationSchema(categories []string) map[string]any {
	enum := make([]any, len(categories))
	for i, c := range categories {
		enum[i] = c
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":   map[string]any{"type": "string", "enum": enum},
			"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"reasoning":  map[string]any{"type": "string"},
		},
		"required":             []any{"category", "confidence"},
		"additionalProperties": false,
	}
}

func validateClassification(schema, reply map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(reply),
	)
	if err != nil {
		return err
	}

	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			issues = append(issues, issue.String())
		}

		return fmt.Errorf("schema violations: %s", strings.Join(issues, "; "))
	}

	return nil
}

func buildClassifyPrompt(text string, structured map[string]any, categories []string) string {
	var b strings.Builder

	b.WriteString("Classify the following message into exactly one of these categories: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString(".\nAnswer with the category name, a confidence between 0 and 1, and a one-sentence rationale.\n\n")

	if subject, ok := structured["subject"].(string); ok && subject != "" {
		b.WriteString("Subject: " + subject + "\n")
	}

	if from, ok := structured["from"].(string); ok && from != "" {
		b.WriteString("From: " + from + "\n")
	}

	b.WriteString("\n")
	b.WriteString(text)

	return b.String()
}

func stringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	}

	return nil
}

func stringMap(value any) map[string]string {
	out := make(map[string]string)

	switch v := value.(type) {
	case map[string]string:
		return v
	case map[string]any:
		for key, item := range v {
			if s, ok := item.(string); ok {
				out[key] = s
			}
		}
	}

	return out
}

func containsString(values []string, needle string) bool {
	for _, v := range values {
		if v == needle {
			return true
		}
	}

	return false
}
