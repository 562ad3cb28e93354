package shopagent

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// RunLogger records what each stage saw and produced during a run.
type RunLogger interface {
	LogStage(entry StageLog) error
}

// NewRunLogFilePath returns a log path keyed on timestamp and a cleaned-up
// model id, so logs from different models are easy to tell apart.
func NewRunLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(model), ":", "_"),
	)
}

// StageLog is one stage execution within a run.
type StageLog struct {
	Stage     Stage     `json:"stage"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt,omitempty"`
	Output    any       `json:"output,omitempty"`
	NextStage Stage     `json:"next_stage,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// FileRunLogger buffers stage entries and flushes them as one JSON document.
type FileRunLogger struct {
	entries []StageLog
	writer  io.Writer
}

func NewFileRunLogger(writer io.Writer) *FileRunLogger {
	return &FileRunLogger{
		entries: make([]StageLog, 0),
		writer:  writer,
	}
}

// LogStage buffers an entry; nothing is written until Flush.
func (l *FileRunLogger) LogStage(entry StageLog) error {
	l.entries = append(l.entries, entry)
	return nil
}

// Flush writes all buffered entries to the writer and clears the buffer.
func (l *FileRunLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"run": map[string]any{
			"timestamp": time.Now(),
			"stages":    l.entries,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}

	l.entries = l.entries[:0]
	return nil
}

// NoOpRunLogger discards all entries.
type NoOpRunLogger struct{}

func NewNoOpRunLogger() *NoOpRunLogger { return &NoOpRunLogger{} }

func (l *NoOpRunLogger) LogStage(entry StageLog) error { return nil }

// StdoutRunLogger writes each entry as a JSON line to stdout (for
// Lambda/CloudWatch).
type StdoutRunLogger struct{}

func NewStdoutRunLogger() *StdoutRunLogger { return &StdoutRunLogger{} }

func (l *StdoutRunLogger) LogStage(entry StageLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}
