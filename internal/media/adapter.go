// Package media wraps file upload and microphone capture in one
// lifecycle: Idle -> Capturing/Uploading -> Resolved or Failed. The
// lifecycle value lives in the session's answer store, so there is exactly
// one source of truth for "is this question's media done".
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"leadform/internal/answer"
	"leadform/internal/repository/blob"
)

var (
	ErrUploadFailed     = errors.New("media: upload failed")
	ErrMicUnavailable   = errors.New("media: microphone unavailable")
	ErrBusy             = errors.New("media: capture already active")
	ErrNothingRecording = errors.New("media: no active recording")
)

// Device is an exclusively held capture handle, released unconditionally
// on stop or teardown.
type Device interface {
	Close() error
}

// DeviceOpener acquires the capture device for a session. The default
// opener models the server side of a streamed capture: the device is a
// logical slot, one per session.
type DeviceOpener func(sessionID string) (Device, error)

type noopDevice struct{}

func (noopDevice) Close() error { return nil }

func defaultOpener(string) (Device, error) { return noopDevice{}, nil }

type recording struct {
	questionID string
	device     Device
	buf        bytes.Buffer

	// answer value in the store before the Capturing sentinel replaced it,
	// restored if the recording's upload fails
	prior    answer.Value
	hadPrior bool
}

// Adapter coordinates uploads and recordings for every live session.
// Uploads are generation-counted per question: when a session tears down
// mid-upload and the respondent answers again, the stale result is
// discarded and the newest write wins.
type Adapter struct {
	blobs  blob.Store
	open   DeviceOpener
	logger *slog.Logger

	mu         sync.Mutex
	recordings map[string]*recording // session id -> active recording
	gens       map[string]int        // session/question -> upload generation
}

func NewAdapter(blobs blob.Store, opener DeviceOpener, logger *slog.Logger) *Adapter {
	if opener == nil {
		opener = defaultOpener
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		blobs:      blobs,
		open:       opener,
		logger:     logger,
		recordings: make(map[string]*recording),
		gens:       make(map[string]int),
	}
}

// UploadFile pushes a selected file through the lifecycle. On failure the
// question's prior answer value is restored unchanged.
func (a *Adapter) UploadFile(ctx context.Context, store *answer.Store, sessionID, questionID, filename, contentType string, data []byte) (answer.Media, error) {
	prior, hadPrior := store.Get(questionID)
	return a.upload(ctx, store, sessionID, questionID, filename, contentType, data, prior, hadPrior)
}

// upload runs the Uploading -> Resolved/restore-prior lifecycle. The prior
// value is passed in because for recordings it predates the Capturing
// sentinel, not the call.
func (a *Adapter) upload(ctx context.Context, store *answer.Store, sessionID, questionID, filename, contentType string, data []byte, prior answer.Value, hadPrior bool) (answer.Media, error) {
	if a == nil || a.blobs == nil {
		return answer.Media{}, fmt.Errorf("%w: no blob store", ErrUploadFailed)
	}
	tag := answer.TagForContentType(contentType)
	gen := a.bumpGen(sessionID, questionID)

	store.Set(questionID, answer.Uploading(tag))

	key := objectKey(sessionID, questionID, filename)
	url, err := a.blobs.Upload(ctx, key, contentType, data)

	if !a.genCurrent(sessionID, questionID, gen) {
		// A newer upload for this question superseded us; whatever it
		// wrote stands.
		return answer.Media{}, nil
	}
	if err != nil {
		if hadPrior {
			store.Set(questionID, prior)
		} else {
			store.Delete(questionID)
		}
		a.logger.Warn("media upload failed", "session", sessionID, "question", questionID, "err", err)
		return answer.Media{}, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	m := answer.Media{Stage: answer.StageResolved, Tag: tag, URL: url}
	store.Set(questionID, answer.MediaOf(m))
	return m, nil
}

// StartRecording acquires the session's capture slot. Starting while a
// recording is active is rejected; the Idle precondition is the only lock
// the microphone needs.
func (a *Adapter) StartRecording(store *answer.Store, sessionID, questionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, active := a.recordings[sessionID]; active {
		return ErrBusy
	}
	dev, err := a.open(sessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMicUnavailable, err)
	}
	prior, hadPrior := store.Get(questionID)
	a.recordings[sessionID] = &recording{questionID: questionID, device: dev, prior: prior, hadPrior: hadPrior}
	store.Set(questionID, answer.Capturing())
	return nil
}

// AppendChunk buffers streamed capture data.
func (a *Adapter) AppendChunk(sessionID string, chunk []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, active := a.recordings[sessionID]
	if !active {
		return ErrNothingRecording
	}
	_, _ = rec.buf.Write(chunk)
	return nil
}

// StopRecording finalizes the buffered audio into one blob and uploads it
// like a file. The device is released before the upload starts, so a
// failed upload never leaks the microphone. Stopping with no active
// recording is a no-op.
func (a *Adapter) StopRecording(ctx context.Context, store *answer.Store, sessionID string) (answer.Media, error) {
	a.mu.Lock()
	rec, active := a.recordings[sessionID]
	if !active {
		a.mu.Unlock()
		return answer.Media{}, nil
	}
	delete(a.recordings, sessionID)
	a.mu.Unlock()

	if err := rec.device.Close(); err != nil {
		a.logger.Warn("capture device close failed", "session", sessionID, "err", err)
	}
	return a.upload(ctx, store, sessionID, rec.questionID, "recording.webm", "audio/webm", rec.buf.Bytes(), rec.prior, rec.hadPrior)
}

// Recording reports whether the session holds the capture slot.
func (a *Adapter) Recording(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, active := a.recordings[sessionID]
	return active
}

// Teardown releases the session's capture slot and invalidates every
// in-flight upload for it. Safe to call whether or not anything is
// active.
func (a *Adapter) Teardown(sessionID string) {
	a.mu.Lock()
	rec, active := a.recordings[sessionID]
	if active {
		delete(a.recordings, sessionID)
	}
	prefix := sessionID + "/"
	for key := range a.gens {
		if strings.HasPrefix(key, prefix) {
			a.gens[key]++
		}
	}
	a.mu.Unlock()

	if active {
		if err := rec.device.Close(); err != nil {
			a.logger.Warn("capture device close failed on teardown", "session", sessionID, "err", err)
		}
	}
}

func (a *Adapter) bumpGen(sessionID, questionID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := sessionID + "/" + questionID
	a.gens[key]++
	return a.gens[key]
}

func (a *Adapter) genCurrent(sessionID, questionID string, gen int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gens[sessionID+"/"+questionID] == gen
}

func objectKey(sessionID, questionID, filename string) string {
	filename = strings.TrimLeft(strings.TrimSpace(filename), "/")
	if filename == "" {
		filename = "upload"
	}
	return sessionID + "/" + questionID + "/" + filename
}
