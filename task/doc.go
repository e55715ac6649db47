// Package task maps the workflow's model calls to models.
//
// Each stage call has a Kind. The kind decides an llmkit tier (review
// runs on the thinking tier, interview questions on the fast tier) and the
// Router turns the tier into a concrete model for the configured provider:
//
//	r := task.NewRouter(task.ProviderClaude, map[task.Kind]string{
//	    task.Draft: "opus",
//	})
//	r.ModelFor(task.Review) // llmkit's thinking-tier model
package task
