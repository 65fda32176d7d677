package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type loggerKeyType string

const correlationIDKey loggerKeyType = "loggerWithCorrelation"

const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// Field describes one HTTP exchange for RequestResponse.
type Field struct {
	URL            string
	HostName       string
	HTTPStatusCode int
	Duration       int64
	HTTPMethod     string
	Route          string
	Message        string
	Extra          map[string]any
}

type Logger interface {
	Debug(ctx context.Context, message string)
	Info(ctx context.Context, message string)
	Warn(ctx context.Context, message string)
	Exception(ctx context.Context, message string, err error)
	Fatal(ctx context.Context, message string, err error)
	InfoWithExtra(ctx context.Context, message string, extra map[string]any)
	WarnWithExtra(ctx context.Context, message string, extra map[string]any)
	RequestResponse(ctx context.Context, withFields *Field)
	WithCorrelationID(ctx context.Context, id string) context.Context
}

type logger struct {
	entry *logrus.Entry
	exit  func(code int)
}

// NewLogger returns a JSON logger writing to stdout. Unknown levels fall back to info.
func NewLogger(level string) Logger {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = InfoLevel
	}
	return NewLoggerWithOutput(os.Stdout, parsed)
}

func NewLoggerWithOutput(out io.Writer, level logrus.Level) Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(new(jsonFormatter))
	log.SetLevel(level)
	return &logger{entry: logrus.NewEntry(log), exit: os.Exit}
}

func (l *logger) Debug(ctx context.Context, message string) {
	l.withContext(ctx).WithField("DateTime", time.Now()).Debug(message)
}

func (l *logger) Info(ctx context.Context, message string) {
	l.withContext(ctx).WithField("DateTime", time.Now()).Info(message)
}

func (l *logger) Warn(ctx context.Context, message string) {
	l.withContext(ctx).WithField("DateTime", time.Now()).Warn(message)
}

func (l *logger) InfoWithExtra(ctx context.Context, message string, extra map[string]any) {
	l.withContext(ctx).WithFields(withExtra(logrus.Fields{"DateTime": time.Now()}, extra)).Info(message)
}

func (l *logger) WarnWithExtra(ctx context.Context, message string, extra map[string]any) {
	l.withContext(ctx).WithFields(withExtra(logrus.Fields{"DateTime": time.Now()}, extra)).Warn(message)
}

func (l *logger) Exception(ctx context.Context, message string, err error) {
	l.withContext(ctx).WithFields(logrus.Fields{
		"DateTime":  time.Now(),
		"Exception": err,
	}).Error(message)
}

func (l *logger) Fatal(ctx context.Context, message string, err error) {
	l.Exception(ctx, message, err)
	l.exit(1)
}

// RequestResponse logs a completed HTTP exchange. 5xx responses are logged at error level,
// 4xx at warn level.
func (l *logger) RequestResponse(ctx context.Context, withFields *Field) {
	fields := withExtra(logrus.Fields{
		"DateTime":       time.Now(),
		"HttpMethod":     withFields.HTTPMethod,
		"HttpStatusCode": withFields.HTTPStatusCode,
		"Duration":       withFields.Duration,
		"HostName":       withFields.HostName,
		"Url":            withFields.URL,
		"Route":          withFields.Route,
	}, withFields.Extra)

	level := logrus.InfoLevel
	switch {
	case withFields.HTTPStatusCode >= 500:
		level = logrus.ErrorLevel
	case withFields.HTTPStatusCode >= 400:
		level = logrus.WarnLevel
	}
	l.withContext(ctx).WithFields(fields).Log(level, withFields.Message)
}

func (l *logger) WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, l.withContext(ctx).WithField("CorrelationId", id))
}

func (l *logger) withContext(ctx context.Context) *logrus.Entry {
	if ctx == nil {
		return l.entry
	}
	if entry, ok := ctx.Value(correlationIDKey).(*logrus.Entry); ok {
		return entry
	}
	return l.entry
}

func withExtra(fields logrus.Fields, extra map[string]any) logrus.Fields {
	for key, value := range extra {
		fields[key] = value
	}
	return fields
}

type jsonFormatter struct{}

func (*jsonFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+2)
	for key, value := range entry.Data {
		data[key] = value
	}
	data["Message"] = entry.Message
	data["Level"] = entry.Level.String()

	if exception, ok := data["Exception"]; ok {
		data["Exception"] = fmt.Sprint(exception)
	}

	serialized, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields to JSON, %w", err)
	}

	return append(serialized, '\n'), nil
}
