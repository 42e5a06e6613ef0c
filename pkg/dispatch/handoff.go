package dispatch

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reflexhq/reflex/pkg/models"
)

// ActionTypeHandoff prepares a human (or agent) handoff for implementing
// review feedback: it assembles a review-context prompt, writes it to a
// content-addressed artifact path, and returns a ready-to-run command
// recipe.
//
// Trust boundary: this handler never executes anything itself. It only
// proposes a command string for someone else to run out of band.
const ActionTypeHandoff = "code_review.implement"

func (r *Router) executeHandoff(actionID string, params map[string]any, dryRun bool, start time.Time) models.ActionResult {
	repo, _ := params["repo"].(string)
	if repo == "" {
		return failedResult(actionID, start, "handoff: missing repo")
	}

	prNumber := fmt.Sprintf("%v", params["pr_number"])
	if prNumber == "" || prNumber == "<nil>" {
		return failedResult(actionID, start, "handoff: missing pr_number")
	}

	instructions, _ := params["instructions"].(string)
	feedback, _ := params["feedback"].(string)

	prompt := buildHandoffPrompt(repo, prNumber, feedback, instructions)
	path := r.artifactPath(repo, prNumber)
	command := fmt.Sprintf("%s -p \"$(cat %s)\"", r.agentCommand, path)

	if dryRun {
		return models.ActionResult{
			ActionID: actionID,
			Status:   models.ActionStatusSuccess,
			Output: map[string]any{
				"dry_run":       true,
				"would_execute": "write " + path,
				"description":   fmt.Sprintf("Would write a review prompt for %s#%s and propose: %s", repo, prNumber, command),
				"repo":          repo,
				"pr_number":     prNumber,
				"prompt_path":   path,
				"command":       command,
			},
			Duration: time.Since(start),
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return failedResult(actionID, start, fmt.Sprintf("handoff: create artifacts dir: %v", err))
	}

	if err := os.WriteFile(path, []byte(prompt), 0o600); err != nil {
		return failedResult(actionID, start, fmt.Sprintf("handoff: write prompt: %v", err))
	}

	r.logger.Info("Prepared review handoff",
		"repo", repo,
		"pr_number", prNumber,
		"prompt_path", path)

	return models.ActionResult{
		ActionID: actionID,
		Status:   models.ActionStatusSuccess,
		Output: map[string]any{
			"repo":        repo,
			"pr_number":   prNumber,
			"prompt_path": path,
			"command":     command,
			"description": "Prompt written. Run the command to address the review feedback.",
		},
		Duration: time.Since(start),
	}
}

// artifactPath derives a content-addressed location from the source
// identifier so repeated handoffs for one PR land on one file.
func (r *Router) artifactPath(repo, prNumber string) string {
	key := repo + "#" + prNumber
	digest := sha256.Sum256([]byte(key))

	slug := strings.NewReplacer("/", "-", " ", "-").Replace(repo)

	return filepath.Join(r.artifactsDir, fmt.Sprintf("review-%s-%s-%x.md", slug, prNumber, digest[:6]))
}

func buildHandoffPrompt(repo, prNumber, feedback, instructions string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Review feedback for %s#%s\n\n", repo, prNumber)
	b.WriteString("A reviewer requested changes on this pull request. ")
	b.WriteString("Read the review comments below, implement the requested changes, and push an update to the same branch.\n\n")

	if feedback != "" {
		b.WriteString("## Review comments\n\n")
		b.WriteString(feedback)
		b.WriteString("\n\n")
	}

	if instructions != "" {
		b.WriteString("## Additional instructions\n\n")
		b.WriteString(instructions)
		b.WriteString("\n")
	}

	return b.String()
}
