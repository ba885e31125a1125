package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"ai-taskpilot-be/internal/constant"
	"ai-taskpilot-be/pkg/llm"
)

// Intent is the coarse classification the router branches on: which domain
// the request belongs to, and which task action it asks for.
type Intent struct {
	Domain string `json:"intent"` // todo, other
	Action string `json:"action"` // add, update, close, query, other
}

func (i *Intent) IsTodo() bool {
	return i.Domain == constant.IntentDomainTodo
}

// Resolver performs pure LLM-based intent classification. No database access,
// no tool calls.
type Resolver struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewResolver(llmProvider llm.LLMProvider, logger *log.Logger) *Resolver {
	return &Resolver{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Resolve classifies a single user query. Classification failures degrade to
// a keyword fallback rather than an error; the router always gets an intent.
func (r *Resolver) Resolve(ctx context.Context, query string) (*Intent, error) {
	prompt := r.buildPrompt(query)

	// Temperature 0 for deterministic output.
	response, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Printf("[ERROR] Intent classification failed: %v", err)
		return r.fallbackIntent(query), nil
	}

	intent, err := r.parseIntent(response)
	if err != nil {
		r.logger.Printf("[WARN] Intent parsing failed, using fallback: %v", err)
		return r.fallbackIntent(query), nil
	}

	r.logger.Printf("[INTENT] Resolved: domain=%s action=%s", intent.Domain, intent.Action)
	return intent, nil
}

func (r *Resolver) buildPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString(constant.IntentClassifierPrompt)
	prompt.WriteString("\n\n<user_query>\n")
	prompt.WriteString(query)
	prompt.WriteString("\n</user_query>\n\n")
	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON:\n")
	prompt.WriteString("{\"intent\": \"todo|other\", \"action\": \"add|update|close|query|other\"}\n")
	prompt.WriteString("</output_format>")

	return prompt.String()
}

func (r *Resolver) parseIntent(response string) (*Intent, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var intent Intent
	if err := json.Unmarshal([]byte(jsonContent), &intent); err != nil {
		return nil, fmt.Errorf("JSON unmarshal failed: %w", err)
	}

	intent.Domain = strings.ToLower(strings.TrimSpace(intent.Domain))
	intent.Action = strings.ToLower(strings.TrimSpace(intent.Action))
	if intent.Domain != constant.IntentDomainTodo {
		intent.Domain = constant.IntentDomainOther
	}
	switch intent.Action {
	case constant.IntentActionAdd, constant.IntentActionUpdate,
		constant.IntentActionClose, constant.IntentActionQuery:
	default:
		intent.Action = constant.IntentActionOther
	}

	return &intent, nil
}

// fallbackIntent applies keyword heuristics when the model output is unusable.
func (r *Resolver) fallbackIntent(query string) *Intent {
	lower := strings.ToLower(query)

	if constant.IdPattern.MatchString(lower) {
		action := constant.IntentActionOther
		switch {
		case containsAny(lower, "close", "done", "finish", "complete", "cancel"):
			action = constant.IntentActionClose
		case containsAny(lower, "update", "change", "rename", "reschedule", "move"):
			action = constant.IntentActionUpdate
		}
		return &Intent{Domain: constant.IntentDomainTodo, Action: action}
	}

	switch {
	case containsAny(lower, "remind", "todo", "task", "schedule"):
		action := constant.IntentActionAdd
		switch {
		case containsAny(lower, "close", "done", "finish", "complete", "cancel"):
			action = constant.IntentActionClose
		case containsAny(lower, "update", "change", "rename", "reschedule"):
			action = constant.IntentActionUpdate
		case containsAny(lower, "how many", "list", "show", "what are"):
			action = constant.IntentActionQuery
		}
		return &Intent{Domain: constant.IntentDomainTodo, Action: action}
	}

	return &Intent{Domain: constant.IntentDomainOther, Action: constant.IntentActionOther}
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}
