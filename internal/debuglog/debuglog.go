// Package debuglog captures generation artifacts for offline inspection.
//
// Each artifact is a named text blob: the prompt sent to the generator, the
// raw response, and the rendered transcript. A later run can import the
// captured response or transcript back into the store.
package debuglog

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Artifact names written by the generation workflow.
const (
	ChatContext  = "chat_context"
	Transcript   = "cutted_script_str"
	ResponseText = "response_text"
)

// Sink receives artifacts. Write never fails from the caller's point of
// view: capture is best-effort and must not abort a generation.
type Sink interface {
	Write(name, text string)
}

// Nop discards every artifact.
type Nop struct{}

// Write implements Sink.
func (Nop) Write(string, string) {}

// FileSink writes each artifact to {Dir}/{name}.log, replacing the previous
// contents. The directory is created on first write.
type FileSink struct {
	Dir    string
	Logger zerolog.Logger
}

// NewFileSink returns a FileSink for dir, or Nop when dir is empty.
func NewFileSink(dir string, logger zerolog.Logger) Sink {
	if dir == "" {
		return Nop{}
	}
	return &FileSink{Dir: dir, Logger: logger}
}

// Path returns the file an artifact is written to.
func (s *FileSink) Path(name string) string {
	return filepath.Join(s.Dir, name+".log")
}

// Write implements Sink.
func (s *FileSink) Write(name, text string) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		s.Logger.Warn().Err(err).Str("dir", s.Dir).Msg("create debug log directory")
		return
	}
	if err := os.WriteFile(s.Path(name), []byte(text), 0o644); err != nil {
		s.Logger.Warn().Err(err).Str("artifact", name).Msg("write debug log")
		return
	}
	s.Logger.Debug().Str("artifact", name).Int("bytes", len(text)).Msg("debug log written")
}
