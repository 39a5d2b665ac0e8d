package config

import (
	"encoding/xml"
	"fmt"
	"strings"

	log "github.com/cihub/seelog"
)

type outputs struct {
	FormatID string `xml:"formatid,attr"`
	Console  string `xml:",innerxml"`
}

type format struct {
	ID     string `xml:"id,attr"`
	Format string `xml:"format,attr"`
}

type formats struct {
	Format format `xml:"format"`
}

type seelog struct {
	XMLName  xml.Name `xml:"seelog"`
	Outputs  outputs  `xml:"outputs,omitempty"`
	Formats  formats  `xml:"formats,omitempty"`
	LogLevel string   `xml:"minlevel,attr"`
}

func newSeelogConfig(logFilePath string) seelog {
	out := "<console />"
	if logFilePath != "" {
		// Rotate log files when size reaches 10MB
		out += fmt.Sprintf(
			" <rollingfile type=\"size\" filename=\"%s\" maxsize=\"10000000\" maxrolls=\"5\" />",
			logFilePath,
		)
	}

	return seelog{
		Outputs: outputs{"common", out},
		Formats: formats{
			format{
				ID:     "common",
				Format: "%Date %Time %LEVEL (%File:%Line) - %Msg%n",
			},
		},
		LogLevel: "info",
	}
}

// NewLoggerLevelCustom replaces the global logger by one writing at the given
// level to the console and to logFilePath when not empty.
func NewLoggerLevelCustom(level, logFilePath string) error {
	cfg := newSeelogConfig(logFilePath)
	ll, ok := log.LogLevelFromString(strings.ToLower(level))
	if !ok {
		ll = log.InfoLvl
	}
	cfg.LogLevel = ll.String()

	l, err := log.LoggerFromConfigAsString(cfg.String())
	if err != nil {
		return err
	}
	return log.ReplaceLogger(l)
}

func (s seelog) String() string {
	b, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
