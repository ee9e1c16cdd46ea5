// Package logging builds the logrus logger shared by the CLI, the store
// and the MCP server.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Formats accepted by Config.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the level, format and destination of log output.
type Config struct {
	Level  string    // panic, fatal, error, warn, info, debug, trace; default info
	Format string    // text or json; default text
	Output io.Writer // default os.Stderr
}

// New returns a logger configured from c.
func New(c Config) (*logrus.Logger, error) {
	log := logrus.New()

	level := logrus.InfoLevel
	if c.Level != "" {
		l, err := logrus.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}
	log.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "", FormatText:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case FormatJSON:
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("log format %q: want %s or %s", c.Format, FormatText, FormatJSON)
	}

	if c.Output != nil {
		log.SetOutput(c.Output)
	} else {
		log.SetOutput(os.Stderr)
	}
	return log, nil
}
