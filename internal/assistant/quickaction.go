package assistant

import "strings"

type Action string

const (
	ActionNone        Action = ""
	ActionFileReport  Action = "file_report"
	ActionCheckStatus Action = "check_status"
	ActionEscalate    Action = "escalate"
	ActionPlaybooks   Action = "playbooks"
)

// quick-action button labels sent verbatim by the chat UI
var quickActions = map[string]Action{
	"check status": ActionCheckStatus,
	"escalate":     ActionEscalate,
	"playbooks":    ActionPlaybooks,
}

// DetectAction matches a message against the start triggers and quick-action
// labels. Matching is exact after trimming and case folding; "file report now"
// is ordinary text.
func DetectAction(message string, startTriggers []string) Action {
	m := strings.ToLower(strings.TrimSpace(message))
	if m == "" {
		return ActionNone
	}
	for _, t := range startTriggers {
		if m == strings.ToLower(strings.TrimSpace(t)) {
			return ActionFileReport
		}
	}
	return quickActions[m]
}
