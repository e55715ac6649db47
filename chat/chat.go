package chat

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse indicates the model returned no text.
var ErrEmptyResponse = errors.New("empty model response")

// Request is one single-turn completion.
type Request struct {
	// Model overrides the client's default model when set.
	Model string

	System string
	Prompt string

	// Temperature is honoured by providers that support it. Nil leaves the
	// provider default.
	Temperature *float32
}

// Usage counts tokens for one completion.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response is a completion result.
type Response struct {
	Text  string
	Usage Usage
}

// Completer runs single-turn completions. Implementations must be safe for
// concurrent use.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (Response, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Temperature returns a pointer for Request.Temperature.
func Temperature(t float32) *float32 {
	return &t
}

func checkText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
