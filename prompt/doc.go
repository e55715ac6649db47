// Package prompt loads the system prompts for each model call and builds the
// user messages that go with them.
//
// The defaults are embedded from prompts/*.txt. A project can override any of
// them by dropping a file with the same name into .resumeflow/prompts/ or
// prompts/. Templates use text/template:
//
//	loader := prompt.NewLoader(".")
//	system, err := loader.Render(prompt.Interview, map[string]any{"Count": 5})
//
//	user := prompt.NewBuilder().
//	    Section("Application Essay", draft).
//	    Build()
package prompt
