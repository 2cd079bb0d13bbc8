package memory

import (
	"sync"
	"time"

	"github.com/secmon-lab/pythia/pkg/domain/model"
	"github.com/secmon-lab/pythia/pkg/domain/types"
)

const (
	// DefaultMaxTurns is the number of user/assistant exchanges retained per user
	DefaultMaxTurns = 10

	// DefaultSessionTTL is the inactivity span after which a conversation expires
	DefaultSessionTTL = time.Hour
)

// record holds one user's conversation. Mutation happens under the record's
// own mutex so appends for unrelated users never serialize on each other.
type record struct {
	mu           sync.Mutex
	messages     []model.Message
	lastActivity time.Time
}

// Store is the conversation memory store: per-user, bounded, time-limited,
// strictly in-process. All operations are total; absence of a record is an
// empty conversation, not an error. Expiry is checked lazily on every read
// and write — there is no background sweep, which is an accepted trade-off.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record

	enabled    bool
	maxTurns   int
	sessionTTL time.Duration
	now        func() time.Time
}

// Option is a functional option for Store configuration
type Option func(*Store)

// WithMaxTurns sets how many user/assistant exchanges are retained. The
// message bound is twice this value.
func WithMaxTurns(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTurns = n
		}
	}
}

// WithSessionTTL sets the inactivity timeout for a conversation
func WithSessionTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithEnabled toggles the store. A disabled store turns every operation into
// a no-op that reports empty history.
func WithEnabled(enabled bool) Option {
	return func(s *Store) {
		s.enabled = enabled
	}
}

// WithClock injects a clock for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a conversation memory store
func New(opts ...Option) *Store {
	s := &Store{
		records:    make(map[string]*record),
		enabled:    true,
		maxTurns:   DefaultMaxTurns,
		sessionTTL: DefaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether the store records conversations
func (s *Store) Enabled() bool {
	return s.enabled
}

// MaxTurns returns the configured exchange bound (turn unit)
func (s *Store) MaxTurns() int {
	return s.maxTurns
}

func (s *Store) getRecord(userID string, create bool) *record {
	s.mu.RLock()
	rec, ok := s.records[userID]
	s.mu.RUnlock()
	if ok || !create {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[userID]; ok {
		return rec
	}
	rec = &record{}
	s.records[userID] = rec
	return rec
}

func (r *record) expired(now time.Time, ttl time.Duration) bool {
	return !r.lastActivity.IsZero() && now.Sub(r.lastActivity) > ttl
}

// AddMessage appends one message to the user's conversation. A no-op when the
// store is disabled. An expired session is cleared before appending, so the
// message starts a fresh conversation. After the append the history is trimmed
// from the front to at most 2*maxTurns messages.
func (s *Store) AddMessage(userID string, role types.Role, content string) {
	if !s.enabled || userID == "" {
		return
	}

	rec := s.getRecord(userID, true)
	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := s.now()
	if rec.expired(now, s.sessionTTL) {
		rec.messages = nil
	}
	// lastActivity must strictly increase even under a coarse test clock
	if !now.After(rec.lastActivity) {
		now = rec.lastActivity.Add(time.Nanosecond)
	}

	rec.messages = append(rec.messages, model.Message{
		Role:      role,
		Content:   content,
		Timestamp: now,
	})
	rec.lastActivity = now

	if bound := 2 * s.maxTurns; len(rec.messages) > bound {
		rec.messages = append([]model.Message(nil), rec.messages[len(rec.messages)-bound:]...)
	}
}

// GetHistory returns the user's messages in chronological order: the last
// `limit` messages when limit > 0, otherwise the last 2*maxTurns. An expired
// session is discarded and reported as empty.
func (s *Store) GetHistory(userID string, limit int) []model.Message {
	if !s.enabled || userID == "" {
		return nil
	}

	rec := s.getRecord(userID, false)
	if rec == nil {
		return nil
	}

	rec.mu.Lock()
	if rec.expired(s.now(), s.sessionTTL) {
		// Discard under the record mutex. Deleting the map entry after
		// unlocking could drop a message a concurrent AddMessage just
		// committed to the same record.
		rec.messages = nil
		rec.mu.Unlock()
		s.dropIfExpired(userID)
		return nil
	}

	if limit <= 0 {
		limit = 2 * s.maxTurns
	}
	msgs := rec.messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := append([]model.Message(nil), msgs...)
	rec.mu.Unlock()

	return out
}

// FormattedHistory returns the history with timestamps stripped, ready to
// feed to a generation backend
func (s *Store) FormattedHistory(userID string) []model.HistoryEntry {
	history := s.GetHistory(userID, 0)
	if len(history) == 0 {
		return nil
	}

	out := make([]model.HistoryEntry, len(history))
	for i, msg := range history {
		out[i] = msg.Formatted()
	}
	return out
}

// dropIfExpired removes the user's record only when it is still expired and
// empty. Both locks are held in store-then-record order, the same order
// getRecord establishes, so a write that restarted the session in the
// meantime keeps its record.
func (s *Store) dropIfExpired(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.expired(s.now(), s.sessionTTL) && len(rec.messages) == 0 {
		delete(s.records, userID)
	}
}

// Clear removes the user's conversation. Idempotent.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
}

// Stats reports the store's current state
func (s *Store) Stats() model.MemoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.MemoryStats{
		ActiveConversations: len(s.records),
		Enabled:             s.enabled,
		MaxTurns:            s.maxTurns,
	}
}
