// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework.
//
// # Context Awareness
//
// The WithRayID helper extracts the RayID from a Fiber context and attaches it to the
// log entry, so that all logs related to a specific request can be correlated.
// ForTeacher does the same for an import run, tagging entries with the teacher email
// and the import identifier.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Server started")
//
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
