package logging

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CommandLineFormatter prints bare messages for info and debug output. Warnings and errors are prefixed with
// their level and followed by their fields in key order, so that excluded consumers remain readable on a terminal.
type CommandLineFormatter struct{}

func (f *CommandLineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	if entry.Level <= logrus.WarnLevel {
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(": ")
	}
	b.WriteString(entry.Message)
	if entry.Level <= logrus.WarnLevel && len(entry.Data) > 0 {
		keys := maps.Keys(entry.Data)
		slices.Sort(keys)
		for _, k := range keys {
			if k == Stacktrace {
				continue
			}
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}
