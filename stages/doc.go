// Package stages implements the model-backed collaborators behind the
// workflow nodes: retrieval, draft, review, questions and finalize.
//
// Build them with the constructors here and hand them to workflow.NewEngine
// through workflow.Stages. Per-run inputs travel in the context (see
// WithSources).
package stages
