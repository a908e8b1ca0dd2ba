package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// NewZerologLogger returns a console logger at the given level ("debug", "info", ...).
// An unknown level falls back to info.
func NewZerologLogger(out io.Writer, level string, noColor bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}).Level(lvl).With().Timestamp().Logger()
}

type zerologPrintf struct {
	logger zerolog.Logger
}

func (z zerologPrintf) Printf(message string, args ...interface{}) {
	z.logger.Debug().Msg(fmt.Sprintf(message, args...))
}

// ZerologPrintf adapts a zerolog logger to Logger. Messages are logged at debug level.
func ZerologPrintf(logger zerolog.Logger) Logger {
	return zerologPrintf{logger: logger}
}
