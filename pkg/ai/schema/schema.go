package schema

import (
	"fmt"
	"os"
	"strings"

	"ai-taskpilot-be/internal/constant"
)

// ToolSpec is the static field contract for one tool. The table below is the
// only source of truth the guard consults; nothing mutates it after init.
type ToolSpec struct {
	Name     string
	Category string // intent action this tool serves: add/update/close/query/other

	Required []string
	Optional []string

	// AddressesRecord marks update/close style tools: they accept either an
	// identifier or a title, with the identifier taking precedence.
	AddressesRecord bool

	// Destructive marks tools whose batch form needs explicit confirmation.
	Destructive bool

	// ChecksActionDeps marks tools whose action_type argument carries
	// external preconditions (repo path, command).
	ChecksActionDeps bool
}

var toolTable = map[string]*ToolSpec{
	constant.ToolAddTodo: {
		Name:             constant.ToolAddTodo,
		Category:         constant.IntentActionAdd,
		Required:         []string{"title", "due_at"},
		Optional:         []string{"action_type", "action_message", "repo_path", "test_mode", "command", "workdir", "args"},
		ChecksActionDeps: true,
	},
	constant.ToolAddSchedule: {
		Name:             constant.ToolAddSchedule,
		Category:         constant.IntentActionAdd,
		Required:         []string{"title", "schedule_kind"},
		Optional:         []string{"time", "day_of_week", "interval_minutes", "action_type", "action_message", "repo_path", "test_mode", "command", "workdir", "args"},
		ChecksActionDeps: true,
	},
	constant.ToolUpdateTodo: {
		Name:             constant.ToolUpdateTodo,
		Category:         constant.IntentActionUpdate,
		Optional:         []string{"todo_id", "title", "new_title", "new_due_at", "new_action_type", "new_action_message", "repo_path", "test_mode", "command", "workdir", "args"},
		AddressesRecord:  true,
		ChecksActionDeps: true,
	},
	constant.ToolCloseTodo: {
		Name:            constant.ToolCloseTodo,
		Category:        constant.IntentActionClose,
		Optional:        []string{"todo_id", "title", "close_note"},
		AddressesRecord: true,
		Destructive:     true,
	},
	constant.ToolQueryTodos: {
		Name:     constant.ToolQueryTodos,
		Category: constant.IntentActionQuery,
		Optional: []string{"include_scheduled", "detail", "limit", "action"},
	},
	constant.ToolGetCurrentTime: {
		Name:     constant.ToolGetCurrentTime,
		Category: constant.IntentActionOther,
	},
}

// RequirementsFor returns the spec for a tool, or false for unknown names.
func RequirementsFor(toolName string) (*ToolSpec, bool) {
	spec, ok := toolTable[toolName]
	return spec, ok
}

func argString(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", x))
	}
}

func argPresent(args map[string]interface{}, key string) bool {
	v, ok := args[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// MissingFields lists required fields absent or empty in args. For
// add_schedule the schedule_kind value pulls in its conditional fields; for
// record-addressed tools both addressing fields are reported when neither is
// supplied.
func (s *ToolSpec) MissingFields(args map[string]interface{}) []string {
	var missing []string
	for _, field := range s.Required {
		if !argPresent(args, field) {
			missing = append(missing, field)
		}
	}

	if s.Name == constant.ToolAddSchedule {
		kind := strings.ToLower(argString(args, "schedule_kind"))
		switch kind {
		case "daily":
			if !argPresent(args, "time") {
				missing = append(missing, "time")
			}
		case "weekly":
			if !argPresent(args, "day_of_week") {
				missing = append(missing, "day_of_week")
			}
			if !argPresent(args, "time") {
				missing = append(missing, "time")
			}
		case "interval":
			if !argPresent(args, "interval_minutes") {
				missing = append(missing, "interval_minutes")
			}
		}
	}

	if s.AddressesRecord {
		if !argPresent(args, "todo_id") && !argPresent(args, "title") {
			missing = append(missing, "todo_id", "title")
		}
	}

	return missing
}

// DependencyResolver evaluates the external preconditions the table declares.
// Resolution order for repository paths: tool argument, then environment
// variable, then configured default.
type DependencyResolver struct {
	TagCheckEnv      string
	WorkorderEnv     string
	DefaultRepoPaths map[string]string // action type -> configured default
}

func NewDependencyResolver(defaults map[string]string) *DependencyResolver {
	if defaults == nil {
		defaults = map[string]string{}
	}
	return &DependencyResolver{
		TagCheckEnv:      "TAG_CHECK_REPO_PATH",
		WorkorderEnv:     "WORKORDER_REPO_PATH",
		DefaultRepoPaths: defaults,
	}
}

func (d *DependencyResolver) envFor(actionType string) string {
	switch actionType {
	case constant.ActionTagCheck:
		return d.TagCheckEnv
	case constant.ActionWorkorderCheck:
		return d.WorkorderEnv
	}
	return ""
}

// ResolveRepoPath applies the argument > env > config precedence. The second
// return reports whether any source produced a path.
func (d *DependencyResolver) ResolveRepoPath(actionType, argPath string) (string, bool) {
	if argPath != "" {
		return argPath, true
	}
	if env := d.envFor(actionType); env != "" {
		if v := os.Getenv(env); v != "" {
			return v, true
		}
	}
	if v := d.DefaultRepoPaths[actionType]; v != "" {
		return v, true
	}
	return "", false
}

// CheckActionDependencies validates the preconditions of an action type.
// A nil return means the action can run.
func (d *DependencyResolver) CheckActionDependencies(actionType, argPath, command string) error {
	switch actionType {
	case constant.ActionTagCheck, constant.ActionWorkorderCheck:
		if _, ok := d.ResolveRepoPath(actionType, argPath); !ok {
			return fmt.Errorf("%s needs a repository path; provide repo_path or set a default", actionType)
		}
	case constant.ActionShell:
		if strings.TrimSpace(command) == "" {
			return fmt.Errorf("shell actions need a command")
		}
	}
	return nil
}
