// Logger setup shared by the binaries.

package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates the root logger. Development gets the prettified console
// writer; everywhere else logs are plain JSON lines.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var output io.Writer = os.Stdout
	if env == "development" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
