package guard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/pkg/ai/parser"
	"ai-taskpilot-be/pkg/ai/schema"
	"ai-taskpilot-be/pkg/store"
)

// TitleMatcher answers "which records carry exactly this title" for the
// uniqueness stage. Implementations query the persisted store; the guard
// itself never writes to it.
type TitleMatcher interface {
	MatchTitle(ctx context.Context, title string) (todoIds []string, scheduleIds []string, err error)
}

// Guard validates proposals before execution. It is deterministic: the same
// proposal, memory record, and store state always yield the same verdict.
type Guard struct {
	matcher TitleMatcher
	deps    *schema.DependencyResolver
}

func New(matcher TitleMatcher, deps *schema.DependencyResolver) *Guard {
	return &Guard{matcher: matcher, deps: deps}
}

// ExtractIds lifts record ids out of free text, falling back to the raw
// value when it carries no recognizable id but is non-empty (single direct
// handles like "t1" from earlier candidate lists).
func ExtractIds(text string) []string {
	if text == "" {
		return nil
	}
	if ids := constant.IdPattern.FindAllString(text, -1); len(ids) > 0 {
		return ids
	}
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	return strings.Fields(raw)
}

func referencesCandidates(query string) bool {
	q := strings.ToLower(query)
	for _, token := range constant.CandidateReferenceTokens {
		if strings.Contains(q, token) {
			return true
		}
	}
	return false
}

func isConfirmation(query string) bool {
	q := strings.ToLower(query)
	for _, token := range constant.ConfirmTokens {
		if strings.Contains(q, token) {
			return true
		}
	}
	return false
}

func sameIdSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Validate runs the five-stage pipeline, short-circuiting on the first
// failure. Only a proposal that clears every stage comes back approved, and
// approval authorizes exactly one execution attempt.
func (g *Guard) Validate(
	ctx context.Context,
	proposal *parser.Proposal,
	mem *store.MemoryRecord,
	intentAction string,
	query string,
) (*Verdict, error) {

	spec, known := schema.RequirementsFor(proposal.ToolName)
	if !known {
		return rejected(CodeValidationRejected, fmt.Sprintf("unknown tool %q", proposal.ToolName)), nil
	}

	// Stage 1: intent consistency.
	if v := g.checkIntent(spec, intentAction); v != nil {
		return v, nil
	}

	// Stage 2: required fields. Record-addressed tools defer their
	// id-or-title requirement to the resolution below.
	if missing := spec.MissingFields(proposal.Arguments); len(missing) > 0 {
		if !spec.AddressesRecord {
			v := needsConfirmation(CodeNeedsClarification,
				fmt.Sprintf("Please provide: %s", strings.Join(missing, ", ")))
			v.Missing = missing
			return v, nil
		}
	}
	if v := g.checkFieldValues(spec, proposal.Arguments); v != nil {
		return v, nil
	}

	// Stages 3 and 5 only apply to record-addressed tools; their external
	// preconditions still get checked once addressing succeeds.
	if spec.AddressesRecord {
		v, err := g.resolveRecordAddress(ctx, spec, proposal, mem, query)
		if err != nil || v.Kind != Approved {
			return v, err
		}
		if dv := g.checkDependencies(spec, proposal.Arguments); dv != nil {
			return dv, nil
		}
		return v, nil
	}

	// Stage 4: external preconditions.
	if v := g.checkDependencies(spec, proposal.Arguments); v != nil {
		return v, nil
	}

	return approved(), nil
}

func (g *Guard) checkIntent(spec *schema.ToolSpec, intentAction string) *Verdict {
	switch intentAction {
	case constant.IntentActionAdd, constant.IntentActionUpdate,
		constant.IntentActionClose, constant.IntentActionQuery:
	default:
		return nil // no usable signal, skip the stage
	}
	if spec.Category == constant.IntentActionOther {
		return nil // helper tools serve any intent
	}
	if spec.Category != intentAction {
		return needsConfirmation(CodeNeedsClarification, fmt.Sprintf(
			"I understood you want to %s, but the proposed step would %s. Which one do you want?",
			intentAction, spec.Category))
	}
	return nil
}

// checkFieldValues validates value-level constraints the schema table
// declares: schedule kinds and weekdays. Deeper format checks (clock times,
// due dates) belong to the executor.
func (g *Guard) checkFieldValues(spec *schema.ToolSpec, args map[string]interface{}) *Verdict {
	if spec.Name != constant.ToolAddSchedule {
		return nil
	}
	kind := strings.ToLower(argString(args, "schedule_kind"))
	if kind != "" && !constant.ValidScheduleKinds[kind] {
		v := needsConfirmation(CodeNeedsClarification,
			"Please pick a schedule kind: daily, weekly, or interval.")
		v.Missing = []string{"schedule_kind"}
		return v
	}
	if kind == "weekly" {
		day := strings.ToLower(argString(args, "day_of_week"))
		if day != "" && !constant.ValidWeekdays[day] {
			v := needsConfirmation(CodeNeedsClarification,
				"day_of_week must be one of mon..sun.")
			v.Missing = []string{"day_of_week"}
			return v
		}
	}
	return nil
}

func (g *Guard) checkDependencies(spec *schema.ToolSpec, args map[string]interface{}) *Verdict {
	if !spec.ChecksActionDeps {
		return nil
	}
	actionType := argString(args, "action_type")
	if actionType == "" {
		actionType = argString(args, "new_action_type")
	}
	if actionType == "" {
		actionType = constant.ActionNote
	}
	if !constant.AllowedActionTypes[actionType] {
		return rejected(CodeValidationRejected, fmt.Sprintf("unsupported action_type %q", actionType))
	}
	if err := g.deps.CheckActionDependencies(actionType, argString(args, "repo_path"), argString(args, "command")); err != nil {
		return rejected(CodeValidationRejected, err.Error())
	}
	return nil
}

// resolveRecordAddress handles update/close addressing: identifier
// precedence, candidate references from memory, title uniqueness, and the
// destructive-batch confirmation handshake.
func (g *Guard) resolveRecordAddress(
	ctx context.Context,
	spec *schema.ToolSpec,
	proposal *parser.Proposal,
	mem *store.MemoryRecord,
	query string,
) (*Verdict, error) {

	args := proposal.Arguments
	ids := ExtractIds(argString(args, "todo_id"))
	if len(ids) == 0 {
		ids = constant.IdPattern.FindAllString(query, -1)
	}

	// A bare confirmation releases a parked batch when its signature (tool
	// name plus full id set) matches the pending action.
	if spec.Destructive && len(ids) == 0 && isConfirmation(query) {
		if mem != nil && mem.Pending != nil && mem.Pending.ToolName == proposal.ToolName && len(mem.Pending.Ids) > 0 {
			v := approved()
			v.ResolvedArgs = map[string]interface{}{"todo_id": strings.Join(mem.Pending.Ids, " ")}
			v.ClearPending = true
			return v, nil
		}
	}

	// "Those ids" resolves against the waiting room instead of re-querying.
	if len(ids) == 0 && referencesCandidates(query) {
		if mem != nil && len(mem.LastCandidates) > 0 {
			ids = append(ids, mem.LastCandidates...)
		} else {
			return needsConfirmation(CodeNeedsClarification,
				"Please list the specific ids so I can proceed."), nil
		}
	}

	if len(ids) > 0 {
		// Stage 5: a destructive batch never runs on first sight.
		if spec.Destructive && len(ids) > 1 {
			confirmed := isConfirmation(query) &&
				mem != nil && mem.Pending != nil &&
				mem.Pending.ToolName == proposal.ToolName &&
				sameIdSet(mem.Pending.Ids, ids)
			if !confirmed {
				v := needsConfirmation(CodeUnconfirmedDestructiveBatch, fmt.Sprintf(
					"This will close %d tasks. Reply \"confirm\" to proceed.", len(ids)))
				v.SetPending = &store.PendingAction{ToolName: proposal.ToolName, Ids: ids}
				return v, nil
			}
		}
		v := approved()
		v.ResolvedArgs = map[string]interface{}{"todo_id": strings.Join(ids, " ")}
		if mem != nil && mem.Pending != nil {
			v.ClearPending = true
		}
		return v, nil
	}

	title := argString(args, "title")
	if title == "" {
		v := needsConfirmation(CodeNeedsClarification,
			"Please provide the todo id or title to work on.")
		v.Missing = []string{"todo_id", "title"}
		return v, nil
	}

	// Stage 3: title uniqueness against the persisted store.
	todoIds, scheduleIds, err := g.matcher.MatchTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("title lookup: %w", err)
	}
	if len(todoIds)+len(scheduleIds) == 0 {
		return rejected(CodeValidationRejected,
			fmt.Sprintf("no todo or schedule titled %q", title)), nil
	}
	if spec.Name == constant.ToolUpdateTodo && len(scheduleIds) > 0 && len(todoIds) == 0 {
		return rejected(CodeValidationRejected,
			"schedules cannot be updated; provide a todo title or id"), nil
	}
	if len(todoIds)+len(scheduleIds) > 1 {
		candidates := append(append([]string{}, todoIds...), scheduleIds...)
		v := needsConfirmation(CodeAmbiguousMatch, fmt.Sprintf(
			"Several records share that title. Please pick an id: %s", strings.Join(candidates, ", ")))
		v.SetCandidates = candidates
		return v, nil
	}

	// Unique match: resolve to the id so execution is deterministic.
	single := append(todoIds, scheduleIds...)[0]
	v := approved()
	v.ResolvedArgs = map[string]interface{}{"todo_id": single}
	return v, nil
}

func argString(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprintf("%v", v))
}
