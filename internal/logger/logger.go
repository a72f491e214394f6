// Package logger builds the service's structured logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a zerolog.Logger writing JSON lines to stdout, tagged with the
// service name. Every screening step logs through a child of this logger.
func New(serviceName string) zerolog.Logger {
	return zerolog.New(os.Stdout).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
