package proc

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	reg := NewRegistry()
	defer reg.Shutdown(context.Background())

	var (
		wg        sync.WaitGroup
		created   atomic.Int32
		factories atomic.Int32
		sessions  = make([]*Session, 50)
	)
	factory := func(snowflake.ID) SessionOptions {
		factories.Add(1)
		return SessionOptions{IdleTimeout: time.Minute}
	}

	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, ok := reg.GetOrCreate(testGuild, factory)
			if ok {
				created.Add(1)
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	if created.Load() != 1 || factories.Load() != 1 {
		t.Fatalf("Expected exactly one creation, got %d (factory ran %d times)", created.Load(), factories.Load())
	}
	for i, s := range sessions {
		if s != sessions[0] {
			t.Fatalf("Session %d differs from the first", i)
		}
	}
	if reg.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", reg.Len())
	}
}

func TestRegistrySlowFactoryDoesNotBlockOtherGuilds(t *testing.T) {
	const other = snowflake.ID(2001)
	reg := NewRegistry()
	defer reg.Shutdown(context.Background())

	entered := make(chan struct{})
	unblock := make(chan struct{})
	go reg.GetOrCreate(testGuild, func(snowflake.ID) SessionOptions {
		close(entered)
		<-unblock
		return SessionOptions{IdleTimeout: time.Minute}
	})
	<-entered

	done := make(chan struct{})
	go func() {
		defer close(done)
		reg.Get(testGuild)
		reg.GetOrCreate(other, func(snowflake.ID) SessionOptions {
			return SessionOptions{IdleTimeout: time.Minute}
		})
		reg.Remove(other)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Other guilds were blocked by a running factory")
	}

	waiter := make(chan *Session)
	go func() {
		s, _ := reg.GetOrCreate(testGuild, func(snowflake.ID) SessionOptions {
			t.Error("Factory ran twice for the same guild")
			return SessionOptions{}
		})
		waiter <- s
	}()
	close(unblock)

	select {
	case s := <-waiter:
		if s == nil || s != reg.Get(testGuild) {
			t.Error("Waiter did not get the created session")
		}
	case <-time.After(waitTimeout):
		t.Fatal("Waiter never returned")
	}
}

func TestRegistryGetAndRemove(t *testing.T) {
	reg := NewRegistry()
	if reg.Get(testGuild) != nil {
		t.Fatal("Expected no session before creation")
	}
	if reg.Remove(testGuild) {
		t.Error("Expected Remove on a missing guild to report false")
	}

	s, _ := reg.GetOrCreate(testGuild, nil)
	if reg.Get(testGuild) != s {
		t.Error("Expected Get to return the created session")
	}

	if !reg.Evict(testGuild) {
		t.Fatal("Expected Evict to find the session")
	}
	if s.Reason() != ReasonExternal {
		t.Errorf("Expected disconnected reason, got %q", s.Reason())
	}
	if reg.Get(testGuild) != nil {
		t.Error("Expected no session after Evict")
	}
}

func TestRegistryShutdown(t *testing.T) {
	reg := NewRegistry()
	var sessions []*Session
	for i := range 3 {
		s, _ := reg.GetOrCreate(snowflake.ID(100+i), nil)
		sessions = append(sessions, s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	reg.Shutdown(ctx)

	if reg.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", reg.Len())
	}
	for _, s := range sessions {
		if s.State() != StateTerminated || s.Reason() != ReasonShutdown {
			t.Errorf("Expected session %s shut down, got %v (%s)", s.GuildID, s.State(), s.Reason())
		}
	}
}
