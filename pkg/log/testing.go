package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// syncBuffer lets several goroutines log into one captured buffer.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// TestLogger captures zerolog JSON lines in memory for assertions in tests.
//
//	logger := log.NewTestLogger(log.LevelDebug)
//	booster, _ := gbdt.NewBooster(cfg, gbdt.WithLogger(logger))
//	...
//	assert.True(t, logger.ContainsMessage("Training finished"))
type TestLogger struct {
	*zerologLogger
	buffer *syncBuffer
}

// NewTestLogger creates a TestLogger that keeps records at or above level.
func NewTestLogger(level Level) *TestLogger {
	buf := &syncBuffer{}
	return &TestLogger{
		zerologLogger: &zerologLogger{zl: zerolog.New(buf).Level(toZerologLevel(level))},
		buffer: buf,
	}
}

// With keeps the capture buffer shared with the parent.
func (t *TestLogger) With(fields ...any) Logger {
	inner := t.zerologLogger.With(fields...).(*zerologLogger)
	return &TestLogger{zerologLogger: inner, buffer: t.buffer}
}

// Enabled ignores the global zerolog level so tests are not affected by it.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= t.zl.GetLevel()
}

// Output returns everything captured so far.
func (t *TestLogger) Output() string {
	return t.buffer.String()
}

// GetLogEntries parses the captured output into one map per record.
func (t *TestLogger) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(t.buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether any record has exactly this message.
func (t *TestLogger) ContainsMessage(message string) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry[zerolog.MessageFieldName] == message {
			return true
		}
	}
	return false
}

// ContainsField reports whether any record carries key with the given value.
// JSON numbers decode as float64, so compare numeric values as float64.
func (t *TestLogger) ContainsField(key string, value interface{}) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if fieldValue, exists := entry[key]; exists && fieldValue == value {
			return true
		}
	}
	return false
}

// Clear drops all captured records.
func (t *TestLogger) Clear() {
	t.buffer.Reset()
}

// TestLoggerProvider implements LoggerProvider over a single TestLogger.
type TestLoggerProvider struct {
	logger *TestLogger
}

// NewTestLoggerProvider creates a provider whose loggers all write into the
// returned TestLogger.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *TestLogger) {
	logger := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, logger
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel is a no-op; the capture level is fixed at construction.
func (p *TestLoggerProvider) SetLevel(Level) {}
