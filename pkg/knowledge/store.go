// Package knowledge ties the embedder, the vector index and the session log
// together into a store of past advisory sessions that can be searched by
// meaning.
//
// Index position i always describes entries[i]. The store rebuilds the
// index from the session log when it is created, so positions realign with
// the log after every restart.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/advisor/pkg/embeddings"
	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/eventstream/nop"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/sessionlog"
	"github.com/papercomputeco/advisor/pkg/vector"
)

// DefaultBatchSize is how many sessions are embedded per call during a rebuild.
const DefaultBatchSize = 32

// Config configures a Store. Log, Embedder and Index are required; the
// store takes ownership of all of them and closes them in Close.
type Config struct {
	Log       *sessionlog.Log
	Embedder  embeddings.Embedder
	Index     vector.Index
	Publisher eventstream.Publisher

	// StrictLoad fails construction on a corrupt session file instead of
	// moving it aside and starting empty.
	StrictLoad bool

	BatchSize int

	// Now stamps generated session ids. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Store is the knowledge store.
type Store struct {
	log       *sessionlog.Log
	embedder  embeddings.Embedder
	index     vector.Index
	publisher eventstream.Publisher
	batchSize int
	now       func() time.Time
	logger    *slog.Logger

	mu      sync.RWMutex
	doc     *sessionlog.Document
	entries []Entry
	dirty   bool
	closed  bool
}

// New loads the session log and indexes every stored session.
func New(ctx context.Context, c Config) (*Store, error) {
	if c.Log == nil {
		return nil, errors.New("knowledge store requires a session log")
	}
	if c.Embedder == nil {
		return nil, errors.New("knowledge store requires an embedder")
	}
	if c.Index == nil {
		return nil, errors.New("knowledge store requires a vector index")
	}
	if c.Embedder.Dimensions() != c.Index.Dimensions() {
		return nil, fmt.Errorf("%w: embedder produces %d dimensions, index holds %d",
			vector.ErrDimensionMismatch, c.Embedder.Dimensions(), c.Index.Dimensions())
	}

	s := &Store{
		log:       c.Log,
		embedder:  c.Embedder,
		index:     c.Index,
		publisher: c.Publisher,
		batchSize: c.BatchSize,
		now:       c.Now,
		logger:    logger.Component(c.Logger, "knowledge"),
	}
	if s.publisher == nil {
		s.publisher = nop.NewPublisher()
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.now == nil {
		s.now = time.Now
	}

	doc, err := s.log.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, sessionlog.ErrCorrupt) && !c.StrictLoad:
		s.logger.Warn("session log is corrupt, starting with an empty store", "error", err)
		if _, qerr := s.log.Quarantine(); qerr != nil {
			return nil, fmt.Errorf("%w (quarantine failed: %v)", err, qerr)
		}
		doc = sessionlog.NewDocument()
		s.dirty = true
	default:
		return nil, err
	}
	s.doc = doc

	if err := s.rebuildLocked(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Rebuild clears the index and re-embeds every session in log order.
func (s *Store) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	return s.rebuildLocked(ctx)
}

// Reload re-reads the session log and rebuilds the index from it. If the
// file cannot be read the current state is kept.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	// Load under the write lock so no save lands between the read and the swap.
	doc, err := s.log.Load(ctx)
	if err != nil {
		return err
	}
	s.doc = doc
	s.dirty = false
	return s.rebuildLocked(ctx)
}

func (s *Store) rebuildLocked(ctx context.Context) error {
	if err := s.index.Reset(ctx); err != nil {
		return fmt.Errorf("resetting vector index: %w", err)
	}
	s.entries = nil

	pending := make([]Entry, 0, s.batchSize)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		texts := make([]string, len(pending))
		for i, e := range pending {
			texts[i] = e.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embedding stored sessions: %w", err)
		}
		for i, vec := range vectors {
			if _, err := s.index.Add(ctx, vec); err != nil {
				return fmt.Errorf("indexing session %s: %w", pending[i].SessionID, err)
			}
			s.entries = append(s.entries, pending[i])
		}
		pending = pending[:0]
		return nil
	}

	err := s.doc.Clients.Each(func(r session.Record) error {
		text, err := session.CanonicalText(r)
		if err != nil {
			return fmt.Errorf("session %s: %w", r.SessionID, err)
		}
		pending = append(pending, Entry{
			ClientName: r.ClientName,
			SessionID:  r.SessionID,
			Text:       text,
		})
		if len(pending) == s.batchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		// Leave an empty, aligned index rather than a partial one.
		s.entries = nil
		if rerr := s.index.Reset(ctx); rerr != nil {
			s.logger.Error("resetting vector index after failed rebuild", "error", rerr)
		}
		return err
	}

	s.logger.Info("knowledge store indexed",
		"sessions", len(s.entries),
		"clients", len(s.doc.Clients.Names()),
	)
	return nil
}

// SaveSession validates, persists and indexes one completed session and
// returns the stored record.
func (s *Store) SaveSession(ctx context.Context, in SaveSessionInput) (*session.Record, error) {
	rec := in.Record()
	generateID := rec.SessionID == ""

	s.mu.RLock()
	if generateID {
		rec.SessionID = s.nextIDLocked(rec.ClientName)
	}
	err := rec.Validate()
	if err == nil {
		err = s.checkNewLocked(rec)
	}
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	text, err := session.CanonicalText(rec)
	if err != nil {
		return nil, err
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding session %s: %w", rec.SessionID, err)
	}

	rec, pos, err := s.commit(ctx, rec, generateID, text, vec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session saved",
		"client", rec.ClientName,
		"session_id", rec.SessionID,
		"position", pos,
	)
	s.publish(ctx, rec, pos, len(text))

	out := rec.Clone()
	return &out, nil
}

// commit is the write critical section: persist, then index. A generated
// id is issued again under the write lock so it follows any session saved
// while this one was embedding.
func (s *Store) commit(ctx context.Context, rec session.Record, generateID bool, text string, vec []float32) (session.Record, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return rec, 0, ErrClosed
	}
	if generateID {
		rec.SessionID = s.nextIDLocked(rec.ClientName)
	}
	if err := s.checkNewLocked(rec); err != nil {
		return rec, 0, err
	}

	if err := s.log.Append(ctx, s.doc, rec); err != nil {
		return rec, 0, err
	}
	s.dirty = false

	pos, err := s.index.Add(ctx, vec)
	if err != nil {
		return rec, 0, fmt.Errorf("%w: session %s: %v", ErrIndexBehind, rec.SessionID, err)
	}
	s.entries = append(s.entries, Entry{
		ClientName: rec.ClientName,
		SessionID:  rec.SessionID,
		Text:       text,
	})
	return rec, pos, nil
}

func (s *Store) nextIDLocked(clientName string) string {
	var prev string
	if sessions := s.doc.Clients.Sessions(clientName); len(sessions) > 0 {
		prev = sessions[len(sessions)-1].SessionID
	}
	return session.NextID(s.now(), prev)
}

func (s *Store) checkNewLocked(rec session.Record) error {
	if s.closed {
		return ErrClosed
	}
	sessions := s.doc.Clients.Sessions(rec.ClientName)
	for _, existing := range sessions {
		if existing.SessionID == rec.SessionID {
			return fmt.Errorf("%w: client %q session %s", ErrDuplicateSession, rec.ClientName, rec.SessionID)
		}
	}
	if n := len(sessions); n > 0 && rec.SessionID <= sessions[n-1].SessionID {
		return fmt.Errorf("%w: client %q session %s does not follow %s",
			ErrSessionOrder, rec.ClientName, rec.SessionID, sessions[n-1].SessionID)
	}
	return nil
}

func (s *Store) publish(ctx context.Context, rec session.Record, pos, textLength int) {
	event, err := eventstream.NewSessionSavedEvent(rec.ClientName, rec.SessionID, pos, textLength)
	if err == nil {
		err = s.publisher.PublishSessionSaved(ctx, event)
	}
	if err != nil {
		s.logger.Warn("publishing session event", "session_id", rec.SessionID, "error", err)
	}
}

// RetrieveSimilarSessions returns up to topK stored sessions closest in
// meaning to query, nearest first. An empty store or topK <= 0 returns an
// empty result without calling the embedder.
func (s *Store) RetrieveSimilarSessions(ctx context.Context, query string, topK int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	if topK <= 0 || len(s.entries) == 0 {
		return []Match{}, nil
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	neighbors, err := s.index.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("searching vector index: %w", err)
	}

	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		if n.Position < 0 || n.Position >= len(s.entries) {
			return nil, fmt.Errorf("vector index returned position %d outside %d entries", n.Position, len(s.entries))
		}
		e := s.entries[n.Position]
		matches = append(matches, Match{
			ClientName: e.ClientName,
			SessionID:  e.SessionID,
			Text:       e.Text,
			Distance:   n.Distance,
		})
	}
	return matches, nil
}

// Log returns the session log backing the store.
func (s *Store) Log() *sessionlog.Log {
	return s.log
}

// Len is the number of indexed sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clients returns client names in log order.
func (s *Store) Clients() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clients.Names()
}

// Sessions returns copies of a client's sessions in save order.
func (s *Store) Sessions(client string) []session.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.doc.Clients.Sessions(client)
	out := make([]session.Record, len(stored))
	for i, r := range stored {
		out[i] = r.Clone()
	}
	return out
}

// Session returns a copy of one session.
func (s *Store) Session(client, sessionID string) (*session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.doc.Clients.Sessions(client) {
		if r.SessionID == sessionID {
			out := r.Clone()
			return &out, nil
		}
	}
	return nil, fmt.Errorf("%w: client %q session %s", ErrSessionNotFound, client, sessionID)
}

// Stats reports counts for the store.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.doc.Len()
	return Stats{
		Clients:    len(s.doc.Clients.Names()),
		Sessions:   total,
		Indexed:    len(s.entries),
		Behind:     total - len(s.entries),
		Dimensions: s.index.Dimensions(),
		Path:       s.log.Path(),
	}
}

// Close writes any unsaved document state and releases the embedder, the
// index and the publisher.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.dirty {
		if err := s.log.Write(context.Background(), s.doc); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs,
		s.index.Close(),
		s.embedder.Close(),
		s.publisher.Close(),
	)
	return errors.Join(errs...)
}
