package models

// Action is one abstract unit of external effect within an automation, keyed
// by a dotted type string (e.g. "email.label", "code_review.implement").
// Params carries the fields needed for the remote call; template placeholders
// may appear in any string-valued parameter at any nesting depth.
type Action struct {
	ID     string         `json:"id,omitempty"`
	Type   string         `json:"type" validate:"required"`
	Name   string         `json:"name,omitempty"`
	Params map[string]any `json:"params,omitempty"`
}

// Param returns a string parameter, or "" when absent or not a string.
func (a *Action) Param(key string) string {
	s, _ := a.Params[key].(string)

	return s
}
