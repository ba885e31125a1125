package router

import (
	"context"
	"fmt"
	"log"
	"testing"

	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/internal/repository/memory"
	"ai-taskpilot-be/pkg/ai/agent"
	"ai-taskpilot-be/pkg/ai/guard"
	"ai-taskpilot-be/pkg/ai/intent"
	"ai-taskpilot-be/pkg/ai/parser"
	"ai-taskpilot-be/pkg/ai/schema"
	"ai-taskpilot-be/pkg/llm"
	"ai-taskpilot-be/pkg/store"

	"github.com/stretchr/testify/assert"
)

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

type recordingExecutor struct {
	executed []*parser.Proposal
}

func (r *recordingExecutor) Execute(_ context.Context, p *parser.Proposal) (string, error) {
	r.executed = append(r.executed, p)
	return fmt.Sprintf("ran %s", p.ToolName), nil
}

type noMatch struct{}

func (noMatch) MatchTitle(context.Context, string) ([]string, []string, error) {
	return nil, nil, nil
}

type fixedClock struct{}

func (fixedClock) CurrentTime() string { return "2026-09-01 10:00:00 WIB" }

type fixture struct {
	router   *Router
	exec     *recordingExecutor
	master   *scriptedLLM
	agentLLM *scriptedLLM
}

func newFixture(masterScript, classifierScript, agentScript []string) *fixture {
	logger := log.New(log.Writer(), "", 0)

	deps := schema.NewDependencyResolver(nil)
	deps.TagCheckEnv = "TEST_ROUTER_TAG_PATH"
	deps.WorkorderEnv = "TEST_ROUTER_WO_PATH"
	g := guard.New(noMatch{}, deps)

	exec := &recordingExecutor{}
	agentLLM := &scriptedLLM{responses: agentScript}
	controller := agent.NewController(agentLLM, g, exec, memory.NewSessionRepository(), logger)

	classifier := intent.NewResolver(&scriptedLLM{responses: classifierScript}, logger)
	master := &scriptedLLM{responses: masterScript}

	return &fixture{
		router:   NewRouter(master, classifier, controller, fixedClock{}, logger),
		exec:     exec,
		master:   master,
		agentLLM: agentLLM,
	}
}

func key(trace string) store.SessionKey {
	return store.SessionKey{TraceId: trace}
}

func TestNonTodoQueryBypassesTaskAgent(t *testing.T) {
	f := newFixture(
		[]string{"I cannot check live weather, but Jakarta is usually hot this time of year."},
		[]string{`{"intent":"other","action":"other"}`},
		[]string{`should never be called`},
	)

	res := f.router.Respond(context.Background(), key("r1"), "how is the weather in Jakarta?")

	assert.Equal(t, parser.StatusFinal, res.Status)
	assert.Contains(t, res.Message, "Jakarta")
	assert.Empty(t, f.exec.executed)
	assert.Equal(t, 0, f.agentLLM.calls)
}

func TestIdFastPathSkipsClassifier(t *testing.T) {
	f := newFixture(
		[]string{"master must not be consulted"},
		[]string{"classifier must not be consulted"},
		[]string{
			`{"tool_name":"close_todo","arguments":{"todo_id":"todo-aaaa1111"}}`,
			`{"status":"final","message":"Closed todo-aaaa1111."}`,
		},
	)

	res := f.router.Respond(context.Background(), key("r2"), "close todo-aaaa1111")

	assert.Equal(t, parser.StatusFinal, res.Status)
	assert.Len(t, f.exec.executed, 1)
	assert.Equal(t, 0, f.master.calls)
}

func TestTodoIntentRoutesToAgent(t *testing.T) {
	f := newFixture(
		[]string{"master must not be consulted"},
		[]string{`{"intent":"todo","action":"add"}`},
		[]string{
			`{"tool_name":"add_todo","arguments":{"title":"buy milk","due_at":"2026-09-02 09:00"}}`,
			`{"status":"final","message":"Added todo: buy milk."}`,
		},
	)

	res := f.router.Respond(context.Background(), key("r3"), "remind me to buy milk tomorrow at 9am")

	assert.Equal(t, parser.StatusFinal, res.Status)
	assert.Len(t, f.exec.executed, 1)
	assert.Equal(t, "add_todo", f.exec.executed[0].ToolName)
}

func TestMasterDelegatesToTaskAgent(t *testing.T) {
	f := newFixture(
		[]string{`{"tool_name":"task_agent","arguments":{"query":"how many open todos"}}`},
		[]string{`gibberish that fails classification`},
		[]string{
			`{"tool_name":"query_todos","arguments":{"detail":false}}`,
			`{"status":"final","message":"Open todos: 3."}`,
		},
	)

	// The keyword fallback sees no task words, so the master decides.
	res := f.router.Respond(context.Background(), key("r4"), "can you check my backlog situation?")

	assert.Equal(t, parser.StatusFinal, res.Status)
	assert.Len(t, f.exec.executed, 1)
	assert.Equal(t, "query_todos", f.exec.executed[0].ToolName)
}

func TestTimeBaselineAnsweredByHelper(t *testing.T) {
	f := newFixture(
		[]string{"master must not be consulted"},
		[]string{`{"intent":"todo","action":"add"}`},
		[]string{
			`{"status":"need_user","message":"I need a current-date baseline to resolve tomorrow."}`,
			`{"tool_name":"add_todo","arguments":{"title":"buy milk","due_at":"2026-09-02 09:00"}}`,
			`{"status":"final","message":"Added todo: buy milk."}`,
		},
	)

	res := f.router.Respond(context.Background(), key("r5"), "remind me to buy milk tomorrow at 9am")

	assert.Equal(t, parser.StatusFinal, res.Status)
	assert.Len(t, f.exec.executed, 1)
}

func TestAdversarialMasterHitsIterationBudget(t *testing.T) {
	f := newFixture(
		[]string{`{"tool_name":"file_manager","arguments":{"path":"/etc"}}`},
		[]string{`{"intent":"other","action":"other"}`},
		[]string{`agent must not be consulted`},
	)

	res := f.router.Respond(context.Background(), key("r6"), "do something odd")

	assert.Equal(t, parser.StatusError, res.Status)
	assert.Equal(t, constant.LoopBudgetNotice, res.Message)
	assert.LessOrEqual(t, f.master.calls, MaxIterations)
	assert.Empty(t, f.exec.executed)
}

func TestGenuineNeedUserReachesCaller(t *testing.T) {
	f := newFixture(
		[]string{"master must not be consulted"},
		[]string{`{"intent":"todo","action":"add"}`},
		[]string{
			`{"status":"need_user","message":"Please provide the execution time","missing":["due_at"]}`,
		},
	)

	res := f.router.Respond(context.Background(), key("r7"), "remind me to buy milk")

	assert.Equal(t, parser.StatusNeedUser, res.Status)
	assert.Equal(t, []string{"due_at"}, res.Missing)
}
