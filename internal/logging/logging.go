package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Packages derive component entries from it
// with For.
var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetLevel(logrus.InfoLevel)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Configure applies a level name ("debug", "info", ...) and a format name
// ("text" or "json") to Log.
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level %q: %w", level, err)
	}
	Log.SetLevel(lvl)

	switch format {
	case "", "text":
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		Log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects Log, mostly for tests and the headless simulator
func SetOutput(w io.Writer) {
	Log.SetOutput(w)
}

// For returns an entry tagged with the component name
func For(component string) *logrus.Entry {
	return Log.WithField("component", component)
}
