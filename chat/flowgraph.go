package chat

import (
	"context"
	"fmt"
	"sync"

	llm "github.com/randalmurphal/llmkit/claude"
)

// FlowgraphClient runs completions through a flowgraph llm.Client such as the
// Claude CLI.
type FlowgraphClient struct {
	client llm.Client

	// perModel caches one client per model override.
	newClient func(model string) llm.Client
	mu        sync.Mutex
	perModel  map[string]llm.Client
}

// NewFlowgraphClient wraps an existing llm.Client. Request.Model is ignored.
func NewFlowgraphClient(client llm.Client) *FlowgraphClient {
	return &FlowgraphClient{client: client}
}

// NewClaudeClient creates a client backed by the Claude CLI. Each model
// named in a Request gets its own CLI client.
func NewClaudeClient(defaultModel, workdir string) *FlowgraphClient {
	newClient := func(model string) llm.Client {
		return llm.NewClaudeCLI(
			llm.WithModel(model),
			llm.WithWorkdir(workdir),
			llm.WithDangerouslySkipPermissions(),
		)
	}
	return &FlowgraphClient{
		client:    newClient(defaultModel),
		newClient: newClient,
		perModel:  map[string]llm.Client{defaultModel: nil},
	}
}

// Complete implements Completer.
func (c *FlowgraphClient) Complete(ctx context.Context, req Request) (Response, error) {
	result, err := c.clientFor(req.Model).Complete(ctx, llm.CompletionRequest{
		SystemPrompt: req.System,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: req.Prompt}},
	})
	if err != nil {
		return Response{}, fmt.Errorf("claude completion: %w", err)
	}

	text, err := checkText(result.Content)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Text: text,
		Usage: Usage{
			InputTokens:  result.Usage.InputTokens,
			OutputTokens: result.Usage.OutputTokens,
		},
	}, nil
}

func (c *FlowgraphClient) clientFor(model string) llm.Client {
	if model == "" || c.newClient == nil {
		return c.client
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.perModel[model]; ok {
		if cl == nil {
			return c.client
		}
		return cl
	}
	cl := c.newClient(model)
	c.perModel[model] = cl
	return cl
}
