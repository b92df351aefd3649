// Package logging builds the process-wide zerolog logger and carries it, along
// with the run ID, through context.Context.
//
// Loggers are created once by the CLI from the resolved configuration and
// attached to the command context. Library code retrieves them with
// FromContext and never constructs its own.
package logging
