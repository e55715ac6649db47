// Package errors turns resumeflow failures into messages a CLI user can act
// on.
//
// Wrap classifies an error (bad config, unreadable document, publish
// failure, rejected credentials, unreachable service) into a CLIError with a
// suggestion; ExitCode maps it to a process exit code:
//
//	if err := run(); err != nil {
//	    err = errors.Wrap(err)
//	    fmt.Fprintln(os.Stderr, err)
//	    os.Exit(errors.ExitCode(err))
//	}
package errors
