// Package analysis covers the post-interview subsystems: recording
// transcription, performance evaluation and coaching feedback. None of it
// sits on the conversation turn path.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"caseprep/internal/domain/repositories"
	"caseprep/internal/generation"
)

// TranscriptionResult is delivered exactly once on a task's channel.
type TranscriptionResult struct {
	RecordingID string
	Text        string
	Err         error
}

// TranscriptionTask is one in-flight transcription: cancellable,
// timeout-bounded, completion signalled on a channel. Long external calls
// never run inline with a request.
type TranscriptionTask struct {
	recordingID string
	done        chan TranscriptionResult
	cancel      context.CancelFunc
}

// Done delivers the result once the task finishes, is cancelled or times
// out.
func (t *TranscriptionTask) Done() <-chan TranscriptionResult {
	return t.done
}

// Cancel aborts the task. The result channel still delivers, carrying the
// cancellation error.
func (t *TranscriptionTask) Cancel() {
	t.cancel()
}

// Transcriber runs transcription tasks and persists their results.
type Transcriber struct {
	recordings repositories.RecordingRepository
	backend    generation.Transcriber
	timeout    time.Duration
	logger     *slog.Logger
}

// NewTranscriber creates a transcriber over the given backend.
func NewTranscriber(recordings repositories.RecordingRepository, backend generation.Transcriber, timeout time.Duration, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		recordings: recordings,
		backend:    backend,
		timeout:    timeout,
		logger:     logger,
	}
}

// Start launches transcription of a recording's media file. The task runs
// detached from the caller's request context; successful results are
// persisted on the recording row before the channel fires.
func (tr *Transcriber) Start(ctx context.Context, recordingID string) (*TranscriptionTask, error) {
	rec, err := tr.recordings.GetByID(ctx, recordingID)
	if err != nil {
		return nil, err
	}

	taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), tr.timeout)
	task := &TranscriptionTask{
		recordingID: recordingID,
		done:        make(chan TranscriptionResult, 1),
		cancel:      cancel,
	}

	go func() {
		defer cancel()

		text, err := tr.backend.Transcribe(taskCtx, rec.FilePath)
		if err != nil {
			tr.logger.Warn("transcription failed",
				"recording_id", recordingID,
				"error", err,
			)
			task.done <- TranscriptionResult{RecordingID: recordingID, Err: err}
			return
		}

		if err := tr.recordings.SetTranscription(taskCtx, recordingID, text); err != nil {
			tr.logger.Error("persist transcription failed",
				"recording_id", recordingID,
				"error", err,
			)
			task.done <- TranscriptionResult{RecordingID: recordingID, Err: err}
			return
		}

		tr.logger.Info("transcription completed",
			"recording_id", recordingID,
			"chars", len(text),
		)
		task.done <- TranscriptionResult{RecordingID: recordingID, Text: text}
	}()

	return task, nil
}
