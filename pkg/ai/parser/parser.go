package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"ai-taskpilot-be/internal/constant"
)

// Proposal is a candidate tool invocation in canonical shape. It lives for
// one loop iteration and is never persisted.
type Proposal struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Status kinds the task agent can terminate a turn with.
const (
	StatusFinal    = "final"
	StatusNeedUser = "need_user"
	StatusError    = "error"
)

// Status is the structured turn outcome emitted by the reasoning capability
// (or synthesized by the controller on failure).
type Status struct {
	Kind    string                 `json:"status"`
	Message string                 `json:"message"`
	Missing []string               `json:"missing,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Result is the parse outcome of one raw model response: exactly one of
// Proposal and Status is set, unless neither could be recognized, in which
// case Text carries the response verbatim.
type Result struct {
	Proposal *Proposal
	Status   *Status
	Text     string
}

var shorthandPattern = regexp.MustCompile(`^\s*([a-zA-Z_]\w*)\((.*)\)\s*$`)

// Parse normalizes one raw model response. Reasoning models wrap their chain
// of thought in <think> tags; everything before the closing tag is dropped.
// Degraded shorthand like add_todo(title="x") is accepted and converted, so
// downstream validation only ever sees the canonical shape.
func Parse(raw string) *Result {
	text := raw
	if idx := strings.LastIndex(text, "</think>"); idx >= 0 {
		text = strings.TrimSpace(text[idx+len("</think>"):])
	}

	if jsonText, ok := extractFirstJSON(text); ok {
		var generic map[string]interface{}
		if err := json.Unmarshal([]byte(jsonText), &generic); err == nil {
			if _, hasTool := generic["tool_name"]; hasTool {
				return &Result{Proposal: normalizeProposal(generic), Text: text}
			}
			if _, hasStatus := generic["status"]; hasStatus {
				if status := parseStatus(jsonText); status != nil {
					return &Result{Status: status, Text: text}
				}
			}
		}
	}

	if proposal := parseShorthand(text); proposal != nil {
		return &Result{Proposal: proposal, Text: text}
	}

	return &Result{Text: text}
}

// normalizeProposal tolerates the "parameters" alias and missing argument
// maps; the guard never sees malformed input.
func normalizeProposal(generic map[string]interface{}) *Proposal {
	name, _ := generic["tool_name"].(string)

	rawArgs := generic["arguments"]
	if rawArgs == nil {
		rawArgs = generic["parameters"]
	}
	args, _ := rawArgs.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}

	return &Proposal{ToolName: name, Arguments: args}
}

func parseStatus(jsonText string) *Status {
	var status Status
	if err := json.Unmarshal([]byte(jsonText), &status); err != nil {
		return nil
	}
	switch status.Kind {
	case StatusFinal, StatusNeedUser, StatusError:
		return &status
	}
	return nil
}

// parseShorthand accepts tool(name="value", n=3) for known tools only.
func parseShorthand(text string) *Proposal {
	match := shorthandPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return nil
	}
	name := match[1]
	if !constant.ToolNames[name] {
		return nil
	}
	argsSrc := strings.TrimSpace(match[2])
	args := map[string]interface{}{}
	if argsSrc == "" {
		return &Proposal{ToolName: name, Arguments: args}
	}
	for _, part := range splitArgs(argsSrc) {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil
		}
		parsed, ok := parseLiteral(strings.TrimSpace(value))
		if !ok {
			return nil
		}
		args[key] = parsed
	}
	return &Proposal{ToolName: name, Arguments: args}
}

// splitArgs splits on commas that sit outside quoted strings.
func splitArgs(src string) []string {
	var parts []string
	var current strings.Builder
	inQuote := false
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inQuote:
			current.WriteByte(c)
			if c == quote && (i == 0 || src[i-1] != '\\') {
				inQuote = false
			}
		case c == '"' || c == '\'':
			inQuote = true
			quote = c
			current.WriteByte(c)
		case c == ',':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func parseLiteral(value string) (interface{}, bool) {
	if value == "" {
		return nil, false
	}
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			inner := value[1 : len(value)-1]
			inner = strings.ReplaceAll(inner, `\"`, `"`)
			inner = strings.ReplaceAll(inner, `\'`, `'`)
			return inner, true
		}
	}
	switch value {
	case "true", "True":
		return true, true
	case "false", "False":
		return false, true
	case "null", "None":
		return nil, true
	}
	if n, err := strconv.Atoi(value); err == nil {
		return float64(n), true
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, true
	}
	return nil, false
}

// extractFirstJSON returns the first balanced JSON object in text, honoring
// string literals and escapes.
func extractFirstJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
