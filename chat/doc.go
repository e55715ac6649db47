// Package chat gives the workflow stages one interface for single-turn model
// calls, whatever the provider.
//
// Implementations:
//   - FlowgraphClient: any flowgraph llm.Client, normally the Claude CLI
//   - GenAIClient: the Gemini API through google.golang.org/genai
//   - CompleterFunc: plain functions, mostly for tests
//
// Empty model output is reported as ErrEmptyResponse rather than passed on.
package chat
