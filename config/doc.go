// Package config resolves resumeflow's settings from layered sources and
// parses them into typed Settings.
//
// Precedence, lowest to highest:
//  1. Built-in defaults (see Keys)
//  2. Global config, ~/.config/resumeflow/config.yaml
//  3. Local config, .resumeflow.yaml in the project root
//  4. RESUMEFLOW_* environment variables (max_retries -> RESUMEFLOW_MAX_RETRIES)
//  5. Command-line flags
//
// Each resolved value remembers its layer:
//
//	cfg := config.NewResolver().Resolve(flags)
//	v, src := cfg.GetWithSource("max_retries") // "3", config.SourceLocal
//
//	settings, err := config.Parse(cfg)
//
// Unknown keys in config files are skipped with a warning. Secret keys are
// masked by Resolved.Display and may only be saved to the global file.
package config
