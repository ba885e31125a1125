package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/internal/repository/memory"
	"ai-taskpilot-be/pkg/ai/guard"
	"ai-taskpilot-be/pkg/ai/parser"
	"ai-taskpilot-be/pkg/llm"
	"ai-taskpilot-be/pkg/store"
)

// ToolExecutor runs one approved proposal and reports the observation.
type ToolExecutor interface {
	Execute(ctx context.Context, proposal *parser.Proposal) (string, error)
}

const (
	// MaxSteps bounds one turn of the reason-act loop.
	MaxSteps = 8

	defaultStepTimeout = 60 * time.Second
)

// Controller runs the task-handling loop for one turn: ask the model, parse,
// validate through the guard, execute, feed the observation back. It is the
// only component that writes to session memory; the guard hands back effects
// and the controller applies them.
type Controller struct {
	llmProvider llm.LLMProvider
	guard       *guard.Guard
	executor    ToolExecutor
	sessions    *memory.SessionRepository
	logger      *log.Logger
	stepTimeout time.Duration
}

func NewController(
	llmProvider llm.LLMProvider,
	g *guard.Guard,
	executor ToolExecutor,
	sessions *memory.SessionRepository,
	logger *log.Logger,
) *Controller {
	return &Controller{
		llmProvider: llmProvider,
		guard:       g,
		executor:    executor,
		sessions:    sessions,
		logger:      logger,
		stepTimeout: defaultStepTimeout,
	}
}

// HandleTask processes one task-domain query and always terminates with a
// structured status: final, need_user, or error. It never panics outward and
// never loops past MaxSteps.
func (c *Controller) HandleTask(
	ctx context.Context,
	key store.SessionKey,
	query string,
	intentAction string,
) *parser.Status {

	mem, ok := c.sessions.Get(key)
	if !ok {
		mem = store.NewMemoryRecord()
		c.sessions.Save(key, mem)
	}

	messages := []llm.Message{
		{Role: "system", Content: constant.TaskAgentPrompt},
		{Role: "user", Content: query},
	}

	timedOut := false
	for step := 1; step <= MaxSteps; step++ {
		response, err := c.chat(ctx, messages)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Printf("[AGENT] step %d: turn cancelled: %v", step, ctx.Err())
				return &parser.Status{Kind: parser.StatusError, Message: "The request was cancelled before it could finish."}
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// Step timeout, not turn cancellation: retry on the next step.
				c.logger.Printf("[AGENT] step %d: model call timed out", step)
				timedOut = true
				continue
			}
			c.logger.Printf("[AGENT] step %d: model call failed: %v", step, err)
			return &parser.Status{Kind: parser.StatusError, Message: "The language model is unavailable; please try again later."}
		}
		timedOut = false

		result := parser.Parse(response)

		if result.Status != nil {
			c.sessions.Save(key, mem)
			return result.Status
		}

		if result.Proposal == nil {
			// Free text with no recognizable structure counts as a direct
			// answer to the user.
			return &parser.Status{Kind: parser.StatusFinal, Message: result.Text}
		}

		proposal := result.Proposal
		c.logger.Printf("[AGENT] step %d: proposal %s", step, proposal.ToolName)

		verdict, err := c.guard.Validate(ctx, proposal, mem, intentAction, query)
		if err != nil {
			c.logger.Printf("[AGENT] step %d: guard failed: %v", step, err)
			return &parser.Status{Kind: parser.StatusError, Message: "Validation failed due to an internal error."}
		}
		c.applyEffects(key, mem, verdict)

		switch verdict.Kind {
		case guard.Rejected:
			messages = append(messages,
				llm.Message{Role: "assistant", Content: result.Text},
				llm.Message{Role: "user", Content: fmt.Sprintf("Validation rejected: %s. Adjust the call or report the problem.", verdict.Reason)},
			)
			continue

		case guard.NeedsConfirmation:
			status := &parser.Status{
				Kind:    parser.StatusNeedUser,
				Message: verdict.Prompt,
				Missing: verdict.Missing,
			}
			return status

		case guard.Approved:
			for k, v := range verdict.ResolvedArgs {
				proposal.Arguments[k] = v
			}
			observation, err := c.executor.Execute(ctx, proposal)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					c.logger.Printf("[AGENT] step %d: execute %s timed out", step, proposal.ToolName)
					timedOut = true
					messages = append(messages,
						llm.Message{Role: "assistant", Content: result.Text},
						llm.Message{Role: "user", Content: "Tool result: the call timed out. Retry it or report the problem."},
					)
					continue
				}
				c.logger.Printf("[AGENT] step %d: execute %s failed: %v", step, proposal.ToolName, err)
				return &parser.Status{Kind: parser.StatusError, Message: "The task store is unavailable; please try again later."}
			}
			messages = append(messages,
				llm.Message{Role: "assistant", Content: result.Text},
				llm.Message{Role: "user", Content: fmt.Sprintf("Tool result: %s\nIf the task is complete, output the final status JSON.", observation)},
			)
		}
	}

	c.logger.Printf("[AGENT] step budget exhausted for session %s", key.String())
	if timedOut {
		return &parser.Status{Kind: parser.StatusError, Message: "The language model timed out; please try again."}
	}
	return &parser.Status{Kind: parser.StatusError, Message: "The request took too many steps to settle; please simplify it and retry."}
}

func (c *Controller) chat(ctx context.Context, messages []llm.Message) (string, error) {
	stepCtx, cancel := context.WithTimeout(ctx, c.stepTimeout)
	defer cancel()
	return c.llmProvider.Chat(stepCtx, messages)
}

// applyEffects is the single write path from verdicts into session memory.
func (c *Controller) applyEffects(key store.SessionKey, mem *store.MemoryRecord, verdict *guard.Verdict) {
	if verdict.ClearPending {
		mem.Pending = nil
		c.sessions.ClearPending(key)
	}
	if verdict.ClearCandidates {
		mem.LastCandidates = nil
		c.sessions.ClearCandidates(key)
	}
	if verdict.SetCandidates != nil {
		mem.LastCandidates = verdict.SetCandidates
		c.sessions.SetCandidates(key, verdict.SetCandidates)
	}
	if verdict.SetPending != nil {
		mem.Pending = verdict.SetPending
		c.sessions.SetPendingAction(key, verdict.SetPending)
	}
}
