package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging sets up the standard logrus logger according to config, writing to out.
func ConfigureLogging(config Config, out io.Writer) error {
	if err := config.Validate(); err != nil {
		return err
	}
	level, _ := logrus.ParseLevel(config.Level)
	logrus.SetLevel(level)
	logrus.SetOutput(out)
	if strings.ToLower(config.Format) == FormatJson {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: false, FullTimestamp: true})
	}
	return nil
}

// ConfigureCommandLineLogging sets up logging suitable for a command line tool: bare messages on stdout.
func ConfigureCommandLineLogging() {
	logrus.SetFormatter(new(CommandLineFormatter))
	logrus.SetOutput(os.Stdout)
}
