package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/shaktris/shaktris-server/internal/shakerr"
)

func TestSecondConcurrentSubmissionIsBusy(t *testing.T) {
	s := New()
	release := make(chan struct{})
	started := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = Submit(s, "p1", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()

	<-started
	_, err := Submit(s, "p1", func() (int, error) { return 2, nil })
	if se, ok := err.(*shakerr.Error); !ok || se.Kind != shakerr.Busy {
		t.Fatalf("expected busy error, got %v", err)
	}
	close(release)
	wg.Wait()
}

func TestDifferentPlayerIsQueuedNotRejectedByGameLock(t *testing.T) {
	// The per-player busy flag only rejects a second action for the SAME
	// player; a different player's action still serializes behind the
	// Game lock (spec §5's per-Game serial ordering) rather than being
	// rejected outright.
	s := New()
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _ = Submit(s, "p1", func() (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		_, err := Submit(s, "p2", func() (int, error) { return 2, nil })
		if err != nil {
			t.Errorf("p2 should not be rejected, only queued behind the game lock: %v", err)
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("p2's submission should still be blocked on the game lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("p2's submission should complete once p1 releases the game lock")
	}
}

func TestSubmissionsForOnePlayerRunSerially(t *testing.T) {
	s := New()
	var order []int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			for {
				_, err := Submit(s, "p1", func() (int, error) {
					mu.Lock()
					order = append(order, i)
					mu.Unlock()
					return i, nil
				})
				if err == nil {
					return
				}
			}
		}()
	}
	wg.Wait()
	if len(order) != 5 {
		t.Fatalf("expected all 5 submissions to eventually run, got %d", len(order))
	}
}
