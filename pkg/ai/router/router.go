package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/pkg/ai/agent"
	"ai-taskpilot-be/pkg/ai/intent"
	"ai-taskpilot-be/pkg/ai/parser"
	"ai-taskpilot-be/pkg/llm"
	"ai-taskpilot-be/pkg/store"
)

// MaxIterations bounds the routing decision loop for one user turn. Every
// model consultation and every sub-agent dispatch spends one iteration.
const MaxIterations = 10

// Response is the routed outcome of one user turn.
type Response struct {
	Status  string   `json:"status"` // final, need_user, error
	Message string   `json:"message"`
	Missing []string `json:"missing,omitempty"`
}

// TimeSource supplies the current-time helper capability for temporal
// grounding of relative expressions.
type TimeSource interface {
	CurrentTime() string
}

// Router is the outermost decision maker: it classifies the turn, routes
// task-domain work to the controller, answers everything else directly, and
// never exceeds its iteration budget no matter how the model behaves.
type Router struct {
	llmProvider llm.LLMProvider
	resolver    *intent.Resolver
	controller  *agent.Controller
	clock       TimeSource
	logger      *log.Logger
}

func NewRouter(
	llmProvider llm.LLMProvider,
	resolver *intent.Resolver,
	controller *agent.Controller,
	clock TimeSource,
	logger *log.Logger,
) *Router {
	return &Router{
		llmProvider: llmProvider,
		resolver:    resolver,
		controller:  controller,
		clock:       clock,
		logger:      logger,
	}
}

// Respond handles one user turn end to end.
func (r *Router) Respond(ctx context.Context, key store.SessionKey, query string) *Response {
	iterations := 0

	// Fast path: queries that carry record ids are task work regardless of
	// what a classifier might say.
	if constant.IdPattern.MatchString(query) {
		r.logger.Printf("[ROUTER] id fast path for session %s", key.String())
		return r.dispatchTask(ctx, key, query, idFastPathAction(query), &iterations)
	}

	classified, err := r.resolver.Resolve(ctx, query)
	if err != nil {
		r.logger.Printf("[ROUTER] intent resolution failed: %v", err)
		return &Response{Status: parser.StatusError, Message: "I could not understand the request; please rephrase."}
	}
	iterations++

	if classified.IsTodo() {
		return r.dispatchTask(ctx, key, query, classified.Action, &iterations)
	}

	return r.masterLoop(ctx, key, query, &iterations)
}

// masterLoop lets the routing model decide: answer directly, or delegate to
// the task agent. Malformed or adversarial outputs cost iterations until the
// budget runs out.
func (r *Router) masterLoop(ctx context.Context, key store.SessionKey, query string, iterations *int) *Response {
	messages := []llm.Message{
		{Role: "system", Content: constant.MasterPrompt},
		{Role: "user", Content: query},
	}

	for *iterations < MaxIterations {
		*iterations++

		response, err := r.llmProvider.Chat(ctx, messages)
		if err != nil {
			r.logger.Printf("[ROUTER] master call failed: %v", err)
			return &Response{Status: parser.StatusError, Message: "The language model is unavailable; please try again later."}
		}

		result := parser.Parse(response)

		if result.Proposal != nil {
			if result.Proposal.ToolName == "task_agent" {
				taskQuery, _ := result.Proposal.Arguments["query"].(string)
				if taskQuery == "" {
					taskQuery = query
				}
				return r.dispatchTask(ctx, key, taskQuery, constant.IntentActionOther, iterations)
			}
			messages = append(messages,
				llm.Message{Role: "assistant", Content: result.Text},
				llm.Message{Role: "user", Content: fmt.Sprintf("Unknown tool %q. Either call task_agent or answer the user directly.", result.Proposal.ToolName)},
			)
			continue
		}

		if result.Status != nil {
			return &Response{Status: result.Status.Kind, Message: result.Status.Message, Missing: result.Status.Missing}
		}

		if strings.TrimSpace(result.Text) != "" {
			return &Response{Status: parser.StatusFinal, Message: result.Text}
		}

		messages = append(messages,
			llm.Message{Role: "assistant", Content: response},
			llm.Message{Role: "user", Content: "Empty response. Answer the user or call task_agent."},
		)
	}

	r.logger.Printf("[ROUTER] iteration budget exhausted for session %s", key.String())
	return &Response{Status: parser.StatusError, Message: constant.LoopBudgetNotice}
}

// dispatchTask hands the turn to the task controller. When the controller
// reports it needs a current-date baseline for a relative time expression,
// the router answers that itself with the time helper and re-dispatches.
func (r *Router) dispatchTask(ctx context.Context, key store.SessionKey, taskQuery, action string, iterations *int) *Response {
	query := taskQuery

	for *iterations < MaxIterations {
		*iterations++

		status := r.controller.HandleTask(ctx, key, query, action)

		if status.Kind == parser.StatusNeedUser && wantsTimeBaseline(status) {
			now := r.clock.CurrentTime()
			r.logger.Printf("[ROUTER] supplying time baseline %s", now)
			query = fmt.Sprintf("%s\n(current time: %s)", taskQuery, now)
			continue
		}

		return &Response{Status: status.Kind, Message: status.Message, Missing: status.Missing}
	}

	r.logger.Printf("[ROUTER] iteration budget exhausted for session %s", key.String())
	return &Response{Status: parser.StatusError, Message: constant.LoopBudgetNotice}
}

// wantsTimeBaseline recognizes the controller asking for today's date rather
// than for genuinely missing user input.
func wantsTimeBaseline(status *parser.Status) bool {
	lower := strings.ToLower(status.Message)
	if strings.Contains(lower, "current-date baseline") || strings.Contains(lower, "current time") || strings.Contains(lower, "today's date") {
		return true
	}
	for _, m := range status.Missing {
		if m == "current_time" || m == "current_date" {
			return true
		}
	}
	return false
}

func idFastPathAction(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "close") || strings.Contains(lower, "done") ||
		strings.Contains(lower, "finish") || strings.Contains(lower, "complete") ||
		strings.Contains(lower, "cancel"):
		return constant.IntentActionClose
	case strings.Contains(lower, "update") || strings.Contains(lower, "change") ||
		strings.Contains(lower, "reschedule") || strings.Contains(lower, "rename"):
		return constant.IntentActionUpdate
	default:
		return constant.IntentActionOther
	}
}
