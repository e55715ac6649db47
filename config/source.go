package config

// Source is the layer a resolved value came from.
type Source string

// Layers, lowest precedence first.
const (
	SourceDefault Source = "default"
	// SourceGlobal is ~/.config/resumeflow/config.yaml.
	SourceGlobal Source = "global"
	// SourceLocal is .resumeflow.yaml in the project root.
	SourceLocal Source = "local"
	SourceEnv   Source = "env"
	SourceFlag  Source = "flag"
)
