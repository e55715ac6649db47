// Package workflow runs the resume review loop.
//
// A run pushes one State through a fixed graph of nodes:
//
//	retrieval -> draft -> review -> (router) -> retry-prep -> draft ...
//	                                         \-> questions -> finalize -> END
//
// Core types:
//   - State: the record threaded through every node
//   - Patch: the fields a stage wants to change, checked against node ownership
//   - NodeID: closed set of node identifiers
//   - Route: the router's verdict after review (loop or proceed, and why)
//   - Engine: compiles the topology onto flowgraph and drives runs
//
// Stages are injected at construction time:
//
//	engine, err := workflow.NewEngine(workflow.Stages{
//	    Retrieval: retrievalStage,
//	    Draft:     draftStage,
//	    Review:    reviewStage,
//	    Questions: questionStage,
//	    Finalize:  finalizeStage,
//	}, workflow.WithMaxRetries(5))
//	final, err := engine.Run(ctx, workflow.NewState("resume"))
//
// Only the retry-prep node changes RetryCount, and the router reads nothing but
// the review tag and the counter, so every run reaches finalize after at most
// MaxRetries+1 reviews.
package workflow
