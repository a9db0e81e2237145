// Package workflow orchestrates the five-phase creative session: upload
// and vision handshake, guided questions, image generation, the edit
// loop and the trophy summary.
package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kidcreatives/kidcreatives/internal/phase"
	"github.com/kidcreatives/kidcreatives/internal/prompt"
)

// Edit is one applied refinement. The image bytes live in the session
// only; clients receive the instruction and timestamp.
type Edit struct {
	Instruction string `json:"instruction"`
	Timestamp   int64  `json:"timestamp"` // epoch milliseconds
	image       []byte
	mimeType    string
}

// Session is one owner's in-flight workflow. All access goes through the
// session mutex; sessions are confined to this package.
type Session struct {
	mu sync.Mutex

	machine *phase.Machine
	state   *prompt.State
	edits   []Edit

	generatedImage []byte
	generatedMIME  string

	lastSeen time.Time
}

func newSession(now time.Time) *Session {
	return &Session{machine: phase.NewMachine(), lastSeen: now}
}

// reset returns the session to an empty handshake, dropping all
// accumulated images, answers and edits.
func (s *Session) reset() {
	s.machine = phase.NewMachine()
	s.state = nil
	s.edits = nil
	s.generatedImage = nil
	s.generatedMIME = ""
}

// latestImage is the most recently produced artwork: the last edit's
// output, falling back to the generated image.
func (s *Session) latestImage() ([]byte, string) {
	if n := len(s.edits); n > 0 {
		return s.edits[n-1].image, s.edits[n-1].mimeType
	}
	return s.generatedImage, s.generatedMIME
}

// Registry maps owner IDs to their live sessions. Sessions idle past the
// TTL are swept by a background goroutine.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	logger   *slog.Logger
}

// NewRegistry builds a registry; ttl bounds how long an untouched
// session survives.
func NewRegistry(ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Get returns the owner's session, creating one on first use, and marks
// it as recently seen.
func (r *Registry) Get(owner uuid.UUID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	sess, ok := r.sessions[owner]
	if !ok {
		sess = newSession(now)
		r.sessions[owner] = sess
	}
	sess.lastSeen = now
	return sess
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartCleanup sweeps stale sessions until ctx is cancelled.
func (r *Registry) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(time.Now())
			}
		}
	}()
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for owner, sess := range r.sessions {
		if now.Sub(sess.lastSeen) > r.ttl {
			delete(r.sessions, owner)
			r.logger.Debug("swept stale workflow session", "owner", owner)
		}
	}
}
