package internal

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the generator's logger. Everything goes to stderr so toolexec
// output never mixes with the compiler's stdout.
var Log = newLogger()

var logger = Log.WithField("component", "svxor")

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetVerbose switches debug output on or off.
func SetVerbose(verbose bool) {
	if verbose {
		Log.SetLevel(logrus.DebugLevel)
		return
	}
	Log.SetLevel(logrus.InfoLevel)
}
