// Package history records every workflow run on disk: its status, usage and
// each committed node with the text it produced, so earlier drafts and review
// verdicts can be inspected after the fact.
//
// Wire a store into the engine and wrap the engine in a Recorder:
//
//	store, err := history.NewFileStore("output/history")
//	engine, err := workflow.NewEngine(stages, workflow.WithNodeObserver(store.Observe))
//	runner := history.NewRecorder(engine, store, logger)
//	result, err := runner.Run(ctx, workflow.NewState("acme"))
//
// Records live under <dir>/runs/<runID>/ as metadata.json and steps.json;
// large step lists are gzipped.
package history
