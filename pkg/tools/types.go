package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mercator-hq/flowlog/pkg/loki"
	"mercator-hq/flowlog/pkg/records"
)

// Tool is a function the external agent can call.
type Tool interface {
	// Name is the function name the agent calls.
	Name() string

	// Definition describes the tool for the agent.
	Definition() Definition

	// Call runs the tool with JSON-encoded arguments and returns its text
	// output.
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// Definition is an OpenAI-style function tool definition.
type Definition struct {
	// Type is always "function"
	Type string `json:"type"`

	// Function describes the callable function
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition defines a callable function.
type FunctionDefinition struct {
	// Name is the function name
	Name string `json:"name"`

	// Description explains what the function does
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the function parameters
	Parameters map[string]any `json:"parameters"`
}

// ErrorTypeUnknownTool labels calls to a tool that is not registered.
const ErrorTypeUnknownTool = "unknown_tool"

// UnknownToolError is returned when no tool is registered under Name.
type UnknownToolError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// ErrorType extends loki.ErrorType with the tool-level errors.
func ErrorType(err error) string {
	var (
		unknown    *UnknownToolError
		payloadErr *records.PayloadError
	)
	switch {
	case errors.As(err, &unknown):
		return ErrorTypeUnknownTool
	case errors.As(err, &payloadErr):
		return loki.ErrorTypeParse
	default:
		return loki.ErrorType(err)
	}
}

// decodeArgs decodes args into v. Unknown fields are rejected.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(args))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &loki.InvalidArgumentError{Field: "arguments", Message: err.Error()}
	}
	return nil
}
