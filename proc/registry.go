package proc

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/leeineian/jmusic/sys"
)

// Registry owns the live sessions, one per guild.
type Registry struct {
	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
	// pending holds guilds whose factory is running; the channel closes when
	// the session is in the table.
	pending map[snowflake.ID]chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[snowflake.ID]*Session),
		pending:  make(map[snowflake.ID]chan struct{}),
	}
}

// GetOrCreate returns the guild's session, creating it and starting its
// worker if there is none. Concurrent callers for the same guild get the
// same session; created is true for exactly one of them. The factory runs
// without the registry lock, so other guilds are never held up by it.
func (r *Registry) GetOrCreate(guildID snowflake.ID, factory SessionFactory) (*Session, bool) {
	for {
		r.mu.Lock()
		if s, ok := r.sessions[guildID]; ok && !s.closing() {
			r.mu.Unlock()
			return s, false
		}
		if wait, ok := r.pending[guildID]; ok {
			r.mu.Unlock()
			<-wait
			continue
		}
		wait := make(chan struct{})
		r.pending[guildID] = wait
		r.mu.Unlock()

		opts := r.buildOptions(guildID, factory, wait)
		s := newSession(guildID, opts, r.release)

		r.mu.Lock()
		r.sessions[guildID] = s
		delete(r.pending, guildID)
		r.mu.Unlock()
		close(wait)

		go s.run()
		sys.Stats.RecordSessionCreated()
		sys.LogVoice(sys.MsgVoiceSessionCreated, guildID)
		return s, true
	}
}

// buildOptions runs factory, releasing waiters on guildID if it panics.
func (r *Registry) buildOptions(guildID snowflake.ID, factory SessionFactory, wait chan struct{}) SessionOptions {
	if factory == nil {
		return SessionOptions{}
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.mu.Lock()
			delete(r.pending, guildID)
			r.mu.Unlock()
			close(wait)
			panic(rec)
		}
	}()
	return factory(guildID)
}

// Get returns the guild's live session, or nil.
func (r *Registry) Get(guildID snowflake.ID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[guildID]; ok && !s.closing() {
		return s
	}
	return nil
}

// Remove stops the guild's session and drops it. It reports whether a
// session was found and is safe to call when there is none.
func (r *Registry) Remove(guildID snowflake.ID) bool {
	return r.remove(guildID, ReasonStopped)
}

// Evict is Remove for connections that were dropped from outside.
func (r *Registry) Evict(guildID snowflake.ID) bool {
	return r.remove(guildID, ReasonExternal)
}

func (r *Registry) remove(guildID snowflake.ID, reason TerminateReason) bool {
	r.mu.Lock()
	s, ok := r.sessions[guildID]
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.stop(reason)
	return true
}

// release drops s from the table if it is still the registered session.
func (r *Registry) release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.GuildID]; ok && cur == s {
		delete(r.sessions, s.GuildID)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown stops every session in parallel and waits for them, or for ctx.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	clear(r.sessions)
	r.mu.Unlock()

	if len(sessions) > 0 {
		sys.LogVoice(sys.MsgVoiceShutdown, len(sessions))
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.stop(ReasonShutdown)
		}(s)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}
