package players

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvictsLeastRecent(t *testing.T) {
	k := NewKnownUsernames(25)

	for i := 0; i < 26; i++ {
		k.AddKnownUsername(fmt.Sprintf("player%d", i))
	}

	if k.Len() != 25 {
		t.Fatalf("expected 25 names, got %d", k.Len())
	}

	if _, ok := k.Lookup("player0"); ok {
		t.Fatal("expected player0 to be evicted")
	}

	if _, ok := k.Lookup("player25"); !ok {
		t.Fatal("expected player25 to be known")
	}
}

func TestReaddMovesToFront(t *testing.T) {
	k := NewKnownUsernames(25)

	for i := 0; i < 25; i++ {
		k.AddKnownUsername(fmt.Sprintf("player%d", i))
	}

	k.AddKnownUsername("player0")
	if k.Len() != 25 {
		t.Fatalf("re-adding grew the set to %d", k.Len())
	}

	if names := k.Names(); names[0] != "player0" {
		t.Fatalf("expected player0 to be most recent, got %s", names[0])
	}

	k.AddKnownUsername("newcomer")

	if _, ok := k.Lookup("player0"); !ok {
		t.Fatal("expected re-touched player0 to survive")
	}

	if _, ok := k.Lookup("player1"); ok {
		t.Fatal("expected player1 to be evicted")
	}
}

func TestNamesIgnoreCase(t *testing.T) {
	k := NewKnownUsernames(3)

	k.AddKnownUsername("alice")
	k.AddKnownUsername("Bob")
	k.AddKnownUsername("ALICE")

	want := []string{"ALICE", "Bob"}
	if diff := cmp.Diff(want, k.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	name, ok := k.Lookup("bob")
	if !ok || name != "Bob" {
		t.Fatalf("expected Bob, got %q (%v)", name, ok)
	}
}

func TestReset(t *testing.T) {
	k := NewKnownUsernames(0)
	if k.Capacity() != DefaultCapacity {
		t.Fatalf("expected default capacity, got %d", k.Capacity())
	}

	k.AddKnownUsername("alice")
	k.ResetKnownUsernames("Me")

	if k.Len() != 0 {
		t.Fatalf("expected empty cache after reset, got %v", k.Names())
	}

	if k.Current() != "Me" || !k.IsCurrent("me") {
		t.Fatalf("expected current user Me, got %q", k.Current())
	}

	k.AddKnownUsername("ME")
	if k.Len() != 0 {
		t.Fatal("expected current user not to be added")
	}

	if name, ok := k.Lookup("me"); !ok || name != "Me" {
		t.Fatalf("expected current user to be known, got %q", name)
	}
}

func TestConcurrentAccess(t *testing.T) {
	k := NewKnownUsernames(25)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k.AddKnownUsername(fmt.Sprintf("p%d_%d", i, j))
			}
		}(i)

		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k.Names()
				k.Lookup("p0_0")
			}
		}()
	}

	wg.Wait()

	if k.Len() != 25 {
		t.Fatalf("expected a full cache, got %d", k.Len())
	}
}

func TestLookupKeepsRecency(t *testing.T) {
	k := NewKnownUsernames(2)

	k.AddKnownUsername("alice")
	k.AddKnownUsername("bob")

	// reads must not count as being seen
	if _, ok := k.Lookup("alice"); !ok {
		t.Fatal("expected alice to be known")
	}
	k.Names()

	k.AddKnownUsername("carol")

	if _, ok := k.Lookup("alice"); ok {
		t.Fatal("expected alice to be evicted despite the lookup")
	}

	want := []string{"carol", "bob"}
	if diff := cmp.Diff(want, k.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}
