package dispatch

// Route maps a dotted action type to one remote (server, tool) pair.
type Route struct {
	Server string
	Tool   string
}

// routes is the static dispatch table for generically-routed action types.
// email.classify and code_review.implement bypass this table with
// specialized handlers.
var routes = map[string]Route{
	"email.label":   {Server: "gmail", Tool: "add_label"},
	"email.archive": {Server: "gmail", Tool: "archive_email"},
	"email.send":    {Server: "gmail", Tool: "send_email"},

	"outlook.list_emails": {Server: "outlook", Tool: "list_emails"},
	"outlook.reply":       {Server: "outlook", Tool: "reply_to_email"},
	"outlook.get_email":   {Server: "outlook", Tool: "get_email_details"},
	"outlook.mark_read":   {Server: "outlook", Tool: "mark_email_read"},
	"outlook.list_events": {Server: "outlook", Tool: "list_calendar_events"},
	"outlook.get_event":   {Server: "outlook", Tool: "get_calendar_event_details"},

	"code_review.comment": {Server: "github", Tool: "add_pr_comment"},
	"code_review.approve": {Server: "github", Tool: "approve_pr"},
}

// RouteFor returns the (server, tool) pair for a generically-routed action
// type.
func RouteFor(actionType string) (Route, bool) {
	route, ok := routes[actionType]

	return route, ok
}

// buildArgs converts resolved action parameters into remote tool arguments.
// Known email types project the exact argument set their tool expects;
// everything else passes the parameter map through.
func buildArgs(actionType string, params map[string]any) map[string]any {
	switch actionType {
	case "email.label":
		return map[string]any{
			"message_id": params["message_id"],
			"label":      params["label"],
		}
	case "email.archive":
		return map[string]any{
			"message_id": params["message_id"],
		}
	case "email.send":
		return map[string]any{
			"to":      params["to"],
			"subject": params["subject"],
			"body":    params["body"],
		}
	}

	args := make(map[string]any, len(params))
	for k, v := range params {
		args[k] = v
	}

	return args
}
