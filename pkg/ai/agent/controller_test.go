package agent

import (
	"context"
	"fmt"
	"log"
	"testing"

	"ai-taskpilot-be/internal/repository/memory"
	"ai-taskpilot-be/pkg/ai/guard"
	"ai-taskpilot-be/pkg/ai/parser"
	"ai-taskpilot-be/pkg/ai/schema"
	"ai-taskpilot-be/pkg/llm"
	"ai-taskpilot-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

// scriptedLLM replays canned responses; once the script runs out it repeats
// the last entry.
type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.Chat(ctx, nil, options...)
}

// timingOutLLM fails its first `failures` calls with a deadline error, then
// hands over to the script. A cancelled context wins over the failure count.
type timingOutLLM struct {
	failures int
	then     *scriptedLLM
	calls    int
}

func (f *timingOutLLM) Chat(ctx context.Context, messages []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if f.calls <= f.failures {
		return "", context.DeadlineExceeded
	}
	return f.then.Chat(ctx, messages, options...)
}

func (f *timingOutLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, nil, options...)
}

type recordingExecutor struct {
	executed []*parser.Proposal
	result   string
}

func (r *recordingExecutor) Execute(_ context.Context, p *parser.Proposal) (string, error) {
	r.executed = append(r.executed, p)
	if r.result != "" {
		return r.result, nil
	}
	return fmt.Sprintf("ran %s", p.ToolName), nil
}

type noMatch struct{}

func (noMatch) MatchTitle(context.Context, string) ([]string, []string, error) {
	return nil, nil, nil
}

func newTestController(model llm.LLMProvider, exec ToolExecutor, sessions *memory.SessionRepository) *Controller {
	deps := schema.NewDependencyResolver(nil)
	deps.TagCheckEnv = "TEST_AGENT_TAG_PATH"
	deps.WorkorderEnv = "TEST_AGENT_WO_PATH"
	g := guard.New(noMatch{}, deps)
	return NewController(model, g, exec, sessions, log.New(log.Writer(), "", 0))
}

func key(trace string) store.SessionKey {
	return store.SessionKey{TraceId: trace}
}

func TestToolCallThenFinal(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		`{"tool_name":"add_todo","arguments":{"title":"buy milk","due_at":"2026-09-02 09:00"}}`,
		`{"status":"final","message":"Added todo: buy milk, due 2026-09-02 09:00"}`,
	}}
	exec := &recordingExecutor{}
	c := newTestController(model, exec, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t1"), "remind me to buy milk tomorrow at 9", "add")

	assert.Equal(t, parser.StatusFinal, status.Kind)
	assert.Len(t, exec.executed, 1)
	assert.Equal(t, "add_todo", exec.executed[0].ToolName)
}

func TestMissingFieldsEndNeedUser(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		`{"tool_name":"add_schedule","arguments":{"title":"workorder check","schedule_kind":"weekly"}}`,
	}}
	exec := &recordingExecutor{}
	c := newTestController(model, exec, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t2"), "run the workorder check weekly", "add")

	assert.Equal(t, parser.StatusNeedUser, status.Kind)
	assert.Equal(t, []string{"day_of_week", "time"}, status.Missing)
	assert.Empty(t, exec.executed, "nothing may execute before the guard approves")
}

func TestRejectionFeedsBackUntilBudget(t *testing.T) {
	// The model never recovers from the invalid action type.
	model := &scriptedLLM{responses: []string{
		`{"tool_name":"add_todo","arguments":{"title":"x","due_at":"2026-09-02 09:00","action_type":"launch_rocket"}}`,
	}}
	exec := &recordingExecutor{}
	c := newTestController(model, exec, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t3"), "add a rocket task", "add")

	assert.Equal(t, parser.StatusError, status.Kind)
	assert.Equal(t, MaxSteps, model.calls, "each rejected attempt must consume exactly one step")
	assert.Empty(t, exec.executed)
}

func TestFreeTextBecomesFinal(t *testing.T) {
	model := &scriptedLLM{responses: []string{"You have no open tasks right now."}}
	c := newTestController(model, &recordingExecutor{}, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t4"), "anything new?", "query")

	assert.Equal(t, parser.StatusFinal, status.Kind)
	assert.Equal(t, "You have no open tasks right now.", status.Message)
}

func TestDestructiveBatchHandshakeAcrossTurns(t *testing.T) {
	sessions := memory.NewSessionRepository()
	exec := &recordingExecutor{}
	sessionKey := key("t5")

	// Turn 1: batch close gets parked.
	model := &scriptedLLM{responses: []string{
		`{"tool_name":"close_todo","arguments":{"todo_id":"todo-aaaa1111 todo-bbbb2222"}}`,
	}}
	c := newTestController(model, exec, sessions)
	status := c.HandleTask(context.Background(), sessionKey, "close todo-aaaa1111 and todo-bbbb2222", "close")

	assert.Equal(t, parser.StatusNeedUser, status.Kind)
	assert.Empty(t, exec.executed)

	record, found := sessions.Get(sessionKey)
	assert.True(t, found)
	assert.NotNil(t, record.Pending)

	// Turn 2: bare confirmation releases the parked batch.
	model = &scriptedLLM{responses: []string{
		`{"tool_name":"close_todo","arguments":{}}`,
		`{"status":"final","message":"Closed both."}`,
	}}
	c = newTestController(model, exec, sessions)
	status = c.HandleTask(context.Background(), sessionKey, "confirm", "close")

	assert.Equal(t, parser.StatusFinal, status.Kind)
	assert.Len(t, exec.executed, 1)
	assert.Equal(t, "todo-aaaa1111 todo-bbbb2222", exec.executed[0].Arguments["todo_id"])

	record, found = sessions.Get(sessionKey)
	assert.True(t, found)
	assert.Nil(t, record.Pending, "confirmation must consume the parked action")
}

func TestModelTimeoutRetriesWithinBudget(t *testing.T) {
	model := &timingOutLLM{
		failures: 2,
		then: &scriptedLLM{responses: []string{
			`{"status":"final","message":"All caught up."}`,
		}},
	}
	c := newTestController(model, &recordingExecutor{}, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t7"), "anything due today?", "query")

	assert.Equal(t, parser.StatusFinal, status.Kind)
	assert.Equal(t, 3, model.calls, "each timed-out attempt must consume exactly one step")
}

func TestModelTimeoutExhaustsBudget(t *testing.T) {
	model := &timingOutLLM{failures: MaxSteps + 1, then: &scriptedLLM{responses: []string{""}}}
	c := newTestController(model, &recordingExecutor{}, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t8"), "anything due today?", "query")

	assert.Equal(t, parser.StatusError, status.Kind)
	assert.Equal(t, "The language model timed out; please try again.", status.Message)
	assert.Equal(t, MaxSteps, model.calls)
}

func TestCancelledTurnIsNotRetried(t *testing.T) {
	model := &timingOutLLM{failures: MaxSteps + 1, then: &scriptedLLM{responses: []string{""}}}
	c := newTestController(model, &recordingExecutor{}, memory.NewSessionRepository())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status := c.HandleTask(ctx, key("t9"), "anything due today?", "query")

	assert.Equal(t, parser.StatusError, status.Kind)
	assert.Equal(t, 1, model.calls, "cancellation must stop the loop immediately")
}

// timingOutExecutor fails its first call with a deadline error, then records
// like the plain recorder.
type timingOutExecutor struct {
	recordingExecutor
	failed bool
}

func (e *timingOutExecutor) Execute(ctx context.Context, p *parser.Proposal) (string, error) {
	if !e.failed {
		e.failed = true
		return "", context.DeadlineExceeded
	}
	return e.recordingExecutor.Execute(ctx, p)
}

func TestExecutorTimeoutRetriesProposal(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		`{"tool_name":"add_todo","arguments":{"title":"buy milk","due_at":"2026-09-02 09:00"}}`,
		`{"tool_name":"add_todo","arguments":{"title":"buy milk","due_at":"2026-09-02 09:00"}}`,
		`{"status":"final","message":"Added todo: buy milk, due 2026-09-02 09:00"}`,
	}}
	exec := &timingOutExecutor{}
	c := newTestController(model, exec, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t10"), "remind me to buy milk tomorrow at 9", "add")

	assert.Equal(t, parser.StatusFinal, status.Kind)
	assert.Len(t, exec.executed, 1, "only the retried attempt may reach the store")
}

func TestStatusPassThrough(t *testing.T) {
	model := &scriptedLLM{responses: []string{
		`{"status":"need_user","message":"Please provide the execution time","missing":["due_at"]}`,
	}}
	c := newTestController(model, &recordingExecutor{}, memory.NewSessionRepository())

	status := c.HandleTask(context.Background(), key("t6"), "remind me to buy milk", "add")

	assert.Equal(t, parser.StatusNeedUser, status.Kind)
	assert.Equal(t, []string{"due_at"}, status.Missing)
}
