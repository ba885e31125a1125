package constant

import "regexp"

// Tool names form a closed set; the guard ignores anything outside it.
const (
	ToolAddTodo        = "add_todo"
	ToolAddSchedule    = "add_schedule"
	ToolUpdateTodo     = "update_todo"
	ToolCloseTodo      = "close_todo"
	ToolQueryTodos     = "query_todos"
	ToolGetCurrentTime = "get_current_time"
)

var ToolNames = map[string]bool{
	ToolAddTodo:        true,
	ToolAddSchedule:    true,
	ToolUpdateTodo:     true,
	ToolCloseTodo:      true,
	ToolQueryTodos:     true,
	ToolGetCurrentTime: true,
}

// Action types a todo can carry. Only their validation contracts live here;
// what the heartbeat does with them is the scheduler's business.
const (
	ActionNote           = "note"
	ActionTagCheck       = "tag_check"
	ActionWorkorderCheck = "workorder_check"
	ActionShell          = "shell"
)

var AllowedActionTypes = map[string]bool{
	ActionNote:           true,
	ActionTagCheck:       true,
	ActionWorkorderCheck: true,
	ActionShell:          true,
}

// Intent actions produced by the classifier.
const (
	IntentActionAdd    = "add"
	IntentActionUpdate = "update"
	IntentActionClose  = "close"
	IntentActionQuery  = "query"
	IntentActionOther  = "other"
)

const (
	IntentDomainTodo  = "todo"
	IntentDomainOther = "other"
)

// Schedule kinds and weekdays accepted by add_schedule.
var ValidScheduleKinds = map[string]bool{
	"daily":    true,
	"weekly":   true,
	"interval": true,
}

var ValidWeekdays = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true,
	"fri": true, "sat": true, "sun": true,
}

const (
	DefaultDueTime = "09:00"
	DueAtLayout    = "2006-01-02 15:04"
	TimeLayout     = "15:04"
)

// IdPattern matches the record ids the system hands out (todo-... /
// schedule-...), so they can be lifted out of free text.
var IdPattern = regexp.MustCompile(`\b(?:todo|schedule)-[0-9a-f]{8}\b`)

// Phrases that signal the user is pointing back at the candidate list from
// the previous turn rather than naming new records.
var CandidateReferenceTokens = []string{
	"those ids",
	"these ids",
	"the ids above",
	"the ones above",
	"those tasks",
	"all of them",
	"close them all",
}

// Phrases that count as an explicit confirmation of a parked batch.
var ConfirmTokens = []string{
	"confirm",
	"yes",
	"ok",
	"go ahead",
	"proceed",
	"do it",
}

// TaskAgentPrompt is the system prompt for the task-handling agent. The model
// must answer with either a tool-call JSON or a structured status JSON.
const TaskAgentPrompt = `You are TaskPilot's todo assistant. You only add, update, close, and query todo tasks.
Output rules:
1) When a tool call is needed, output tool-call JSON only (keys tool_name and arguments):
   {"tool_name":"...","arguments":{...}}
2) When no tool call is needed, output status JSON only (keys status/message/missing/data):
   {"status":"final","message":"...","data":{...}}
   {"status":"need_user","message":"Please provide the execution time","missing":["due_at"]}
   {"status":"error","message":"argument format invalid"}
Never output fields such as parameters, agent, or action.
Recurring tasks use add_schedule; one-off tasks use add_todo.
Use query_todos for counts or listings.
Action types: note / tag_check / workorder_check / shell.
Time rules:
- add_todo.due_at must be YYYY-MM-DD HH:MM
- add_schedule: schedule_kind daily/weekly/interval; weekly needs day_of_week mon..sun plus time HH:MM; daily needs time; interval needs interval_minutes.
When the user gives a relative time such as "tomorrow" or "next week", do not ask the user for today's date; output need_user and say a current-date baseline is required.
When required details are missing, output need_user first. Never invent a default time.
Examples:
{"tool_name":"query_todos","arguments":{"detail":false}}
{"tool_name":"add_todo","arguments":{"title":"tag check","due_at":"2026-01-08 14:00","action_type":"tag_check","repo_path":"/path"}}
{"status":"final","message":"Added todo: tag check, due 2026-01-08 14:00"}`

// IntentClassifierPrompt asks the model for a minimal domain/action pair.
const IntentClassifierPrompt = `You are an intent classifier. Output JSON only.
Return a JSON object with exactly two keys:
- intent: "todo" or "other"
- action: "add" / "update" / "close" / "query" / "other"
Decide whether the request is about managing todo tasks, and which action it wants.`

// MasterPrompt steers the routing agent.
const MasterPrompt = `You are TaskPilot's routing assistant.
For todo-related requests (add/update/close/query/schedules/reminders/counts) call the task agent.
Answer non-todo questions directly or ask the user to clarify; never force a task-agent call.
When calling a sub-agent use tool-call JSON with only tool_name and arguments, and arguments must contain a query field.
Example: {"tool_name":"task_agent","arguments":{"query":"every Tuesday at 11:00 run the workorder check"}}`

// Degraded-service notice emitted when the router's iteration budget runs out.
const LoopBudgetNotice = "I could not settle this request within the allowed number of steps. Please simplify the request and try again."
