package utils

import "io"

type flushableWriter interface {
	Flush() error
}

type flushingWriter struct {
	delegate io.Writer
	flusher  flushableWriter
}

// NewFlushingWriter wraps the writer so every Write is flushed immediately
// when the underlying writer supports flushing. Buffered command output then
// reaches the terminal as it is produced instead of at process exit.
func NewFlushingWriter(delegate io.Writer) io.Writer {
	writer := &flushingWriter{delegate: delegate}
	if flusher, flushable := delegate.(flushableWriter); flushable {
		writer.flusher = flusher
	}
	return writer
}

func (writer *flushingWriter) Write(payload []byte) (int, error) {
	bytesWritten, writeError := writer.delegate.Write(payload)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if writer.flusher != nil {
		if flushError := writer.flusher.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}
	return bytesWritten, nil
}
