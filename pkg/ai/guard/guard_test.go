package guard

import (
	"context"
	"testing"

	"ai-taskpilot-be/pkg/ai/parser"
	"ai-taskpilot-be/pkg/ai/schema"
	"ai-taskpilot-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

// fakeMatcher returns canned title matches.
type fakeMatcher struct {
	todos     map[string][]string
	schedules map[string][]string
}

func (m *fakeMatcher) MatchTitle(_ context.Context, title string) ([]string, []string, error) {
	return m.todos[title], m.schedules[title], nil
}

func newTestGuard(m *fakeMatcher) *Guard {
	deps := schema.NewDependencyResolver(nil)
	deps.TagCheckEnv = "TEST_GUARD_TAG_PATH"
	deps.WorkorderEnv = "TEST_GUARD_WO_PATH"
	if m == nil {
		m = &fakeMatcher{}
	}
	return New(m, deps)
}

func proposal(tool string, args map[string]interface{}) *parser.Proposal {
	if args == nil {
		args = map[string]interface{}{}
	}
	return &parser.Proposal{ToolName: tool, Arguments: args}
}

func TestUnknownToolRejected(t *testing.T) {
	g := newTestGuard(nil)
	v, err := g.Validate(context.Background(), proposal("drop_database", nil), store.NewMemoryRecord(), "other", "drop it")
	assert.NoError(t, err)
	assert.Equal(t, Rejected, v.Kind)
}

func TestIntentMismatchAsksUser(t *testing.T) {
	g := newTestGuard(nil)
	v, err := g.Validate(context.Background(),
		proposal("add_todo", map[string]interface{}{"title": "x", "due_at": "2026-09-02 09:00"}),
		store.NewMemoryRecord(), "query", "how many todos do I have")
	assert.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, v.Kind)
	assert.Equal(t, CodeNeedsClarification, v.Code)
}

func TestHelperToolServesAnyIntent(t *testing.T) {
	g := newTestGuard(nil)
	v, err := g.Validate(context.Background(), proposal("get_current_time", nil),
		store.NewMemoryRecord(), "add", "remind me tomorrow")
	assert.NoError(t, err)
	assert.Equal(t, Approved, v.Kind)
}

func TestMissingFieldsReported(t *testing.T) {
	g := newTestGuard(nil)
	v, err := g.Validate(context.Background(),
		proposal("add_schedule", map[string]interface{}{"title": "workorder check", "schedule_kind": "weekly"}),
		store.NewMemoryRecord(), "add", "every week run the workorder check")
	assert.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, v.Kind)
	assert.Equal(t, []string{"day_of_week", "time"}, v.Missing)
}

func TestTitleAmbiguityFillsCandidates(t *testing.T) {
	g := newTestGuard(&fakeMatcher{todos: map[string][]string{"buy milk": {"t1", "t2"}}})
	mem := store.NewMemoryRecord()

	v, err := g.Validate(context.Background(),
		proposal("close_todo", map[string]interface{}{"title": "buy milk"}),
		mem, "close", "close buy milk")
	assert.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, v.Kind)
	assert.Equal(t, CodeAmbiguousMatch, v.Code)
	assert.Equal(t, []string{"t1", "t2"}, v.SetCandidates)

	// The follow-up names one id directly and goes through.
	v, err = g.Validate(context.Background(),
		proposal("close_todo", map[string]interface{}{"todo_id": "t1"}),
		mem, "close", "t1")
	assert.NoError(t, err)
	assert.Equal(t, Approved, v.Kind)
	assert.Equal(t, "t1", v.ResolvedArgs["todo_id"])
}

func TestTitleUniqueMatchResolvesId(t *testing.T) {
	g := newTestGuard(&fakeMatcher{todos: map[string][]string{"pay rent": {"todo-1a2b3c4d"}}})
	v, err := g.Validate(context.Background(),
		proposal("close_todo", map[string]interface{}{"title": "pay rent"}),
		store.NewMemoryRecord(), "close", "close pay rent")
	assert.NoError(t, err)
	assert.Equal(t, Approved, v.Kind)
	assert.Equal(t, "todo-1a2b3c4d", v.ResolvedArgs["todo_id"])
}

func TestTitleNoMatchRejected(t *testing.T) {
	g := newTestGuard(&fakeMatcher{})
	v, err := g.Validate(context.Background(),
		proposal("close_todo", map[string]interface{}{"title": "ghost"}),
		store.NewMemoryRecord(), "close", "close ghost")
	assert.NoError(t, err)
	assert.Equal(t, Rejected, v.Kind)
}

func TestUpdateCannotTargetSchedule(t *testing.T) {
	g := newTestGuard(&fakeMatcher{schedules: map[string][]string{"standup": {"schedule-11aa22bb"}}})
	v, err := g.Validate(context.Background(),
		proposal("update_todo", map[string]interface{}{"title": "standup", "new_title": "sync"}),
		store.NewMemoryRecord(), "update", "rename standup to sync")
	assert.NoError(t, err)
	assert.Equal(t, Rejected, v.Kind)
}

func TestCandidateReferenceUsesMemory(t *testing.T) {
	g := newTestGuard(nil)
	mem := store.NewMemoryRecord()
	mem.LastCandidates = []string{"todo-aaaa1111", "todo-bbbb2222"}

	v, err := g.Validate(context.Background(),
		proposal("close_todo", nil),
		mem, "close", "close all of them")
	assert.NoError(t, err)
	// Two candidates form a destructive batch, so the handshake starts.
	assert.Equal(t, NeedsConfirmation, v.Kind)
	assert.Equal(t, CodeUnconfirmedDestructiveBatch, v.Code)
	assert.NotNil(t, v.SetPending)
	assert.Equal(t, []string{"todo-aaaa1111", "todo-bbbb2222"}, v.SetPending.Ids)
}

func TestCandidateReferenceWithoutMemoryAsks(t *testing.T) {
	g := newTestGuard(nil)
	v, err := g.Validate(context.Background(),
		proposal("close_todo", nil),
		store.NewMemoryRecord(), "close", "close those ids")
	assert.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, v.Kind)
	assert.Equal(t, CodeNeedsClarification, v.Code)
}

func TestDestructiveBatchHandshake(t *testing.T) {
	g := newTestGuard(nil)
	mem := store.NewMemoryRecord()

	// First sight: park the batch.
	v, err := g.Validate(context.Background(),
		proposal("close_todo", map[string]interface{}{"todo_id": "todo-aaaa1111 todo-bbbb2222"}),
		mem, "close", "close todo-aaaa1111 and todo-bbbb2222")
	assert.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, v.Kind)
	assert.Equal(t, CodeUnconfirmedDestructiveBatch, v.Code)
	mem.Pending = v.SetPending

	// Matching confirmation releases it.
	v, err = g.Validate(context.Background(),
		proposal("close_todo", nil),
		mem, "close", "confirm")
	assert.NoError(t, err)
	assert.Equal(t, Approved, v.Kind)
	assert.Equal(t, "todo-aaaa1111 todo-bbbb2222", v.ResolvedArgs["todo_id"])
	assert.True(t, v.ClearPending)
}

func TestDestructiveBatchSignatureMustMatch(t *testing.T) {
	g := newTestGuard(nil)
	mem := store.NewMemoryRecord()
	mem.Pending = &store.PendingAction{ToolName: "close_todo", Ids: []string{"todo-aaaa1111"}}

	// A confirmation naming a different id set restarts the handshake.
	v, err := g.Validate(context.Background(),
		proposal("close_todo", map[string]interface{}{"todo_id": "todo-cccc3333 todo-dddd4444"}),
		mem, "close", "confirm closing todo-cccc3333 todo-dddd4444")
	assert.NoError(t, err)
	assert.Equal(t, NeedsConfirmation, v.Kind)
	assert.Equal(t, CodeUnconfirmedDestructiveBatch, v.Code)
	assert.Equal(t, []string{"todo-cccc3333", "todo-dddd4444"}, v.SetPending.Ids)
}

func TestSingleCloseNeedsNoHandshake(t *testing.T) {
	g := newTestGuard(nil)
	v, err := g.Validate(context.Background(),
		proposal("close_todo", map[string]interface{}{"todo_id": "todo-aaaa1111"}),
		store.NewMemoryRecord(), "close", "close todo-aaaa1111")
	assert.NoError(t, err)
	assert.Equal(t, Approved, v.Kind)
}

func TestActionDependenciesChecked(t *testing.T) {
	g := newTestGuard(nil)

	// tag_check with no repo path from any source.
	v, err := g.Validate(context.Background(),
		proposal("add_todo", map[string]interface{}{
			"title": "tag check", "due_at": "2026-09-02 09:00", "action_type": "tag_check",
		}),
		store.NewMemoryRecord(), "add", "run the tag check tomorrow")
	assert.NoError(t, err)
	assert.Equal(t, Rejected, v.Kind)

	// Explicit repo_path satisfies it.
	v, err = g.Validate(context.Background(),
		proposal("add_todo", map[string]interface{}{
			"title": "tag check", "due_at": "2026-09-02 09:00",
			"action_type": "tag_check", "repo_path": "/srv/repo",
		}),
		store.NewMemoryRecord(), "add", "run the tag check tomorrow")
	assert.NoError(t, err)
	assert.Equal(t, Approved, v.Kind)
}

func TestShellUpdateNeedsCommand(t *testing.T) {
	g := newTestGuard(nil)
	v, err := g.Validate(context.Background(),
		proposal("update_todo", map[string]interface{}{
			"todo_id": "todo-aaaa1111", "new_action_type": "shell",
		}),
		store.NewMemoryRecord(), "update", "make todo-aaaa1111 run a shell action")
	assert.NoError(t, err)
	assert.Equal(t, Rejected, v.Kind)

	v, err = g.Validate(context.Background(),
		proposal("update_todo", map[string]interface{}{
			"todo_id": "todo-aaaa1111", "new_action_type": "shell", "command": "make test",
		}),
		store.NewMemoryRecord(), "update", "make todo-aaaa1111 run make test")
	assert.NoError(t, err)
	assert.Equal(t, Approved, v.Kind)
}

func TestExtractIds(t *testing.T) {
	assert.Equal(t, []string{"todo-1a2b3c4d", "schedule-99ff00aa"},
		ExtractIds("close todo-1a2b3c4d and schedule-99ff00aa"))
	assert.Equal(t, []string{"t1"}, ExtractIds("t1"))
	assert.Nil(t, ExtractIds(""))
}
