package fiberlog

import "github.com/sirupsen/logrus"

// Config selects the logger and the request fields emitted per call.
type Config struct {
	Logger *logrus.Logger
	Tags   []string
}

// ConfigDefault includes the caller IP: the public form-update routes are
// token-scoped and unauthenticated, so the origin is kept in the log line.
var ConfigDefault Config = Config{
	Logger: nil,
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagPath,
		TagIP,
	},
}
