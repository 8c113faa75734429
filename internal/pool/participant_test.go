package pool

import (
	"testing"

	"dollyeo/internal/domain"
	"dollyeo/internal/roulette"
)

func assertDenseOrder(t *testing.T, pool ParticipantPool) {
	t.Helper()
	for i, participant := range pool {
		if participant.Order != i {
			t.Fatalf("order not dense at position %d: %+v", i, pool)
		}
	}
}

func TestParticipantAddAssignsNextOrder(t *testing.T) {
	pool := ParticipantPool{}

	pool, alice, err := pool.Add(" Alice ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if alice.Name != "Alice" || alice.Order != 0 {
		t.Fatalf("unexpected participant %+v", alice)
	}

	pool, bob, _ := pool.Add("Bob")
	if bob.Order != 1 {
		t.Fatalf("expected order 1, got %d", bob.Order)
	}
	assertDenseOrder(t, pool)

	if _, _, err := pool.Add("   "); err != domain.ErrInvalidName {
		t.Fatalf("expected invalid name error, got %v", err)
	}
}

func TestParticipantRemoveRecompactsOrder(t *testing.T) {
	pool := ParticipantPool{}
	pool, _, _ = pool.Add("Alice")
	pool, bob, _ := pool.Add("Bob")
	pool, _, _ = pool.Add("Carol")

	pool = pool.Remove(bob.ID)
	if len(pool) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(pool))
	}
	if pool[0].Name != "Alice" || pool[1].Name != "Carol" {
		t.Fatalf("relative order lost: %+v", pool)
	}
	assertDenseOrder(t, pool)

	// Unknown id is a no-op.
	if got := pool.Remove("missing"); len(got) != 2 {
		t.Fatalf("expected no-op remove, got %d", len(got))
	}
}

func TestParticipantShuffleKeepsDenseOrder(t *testing.T) {
	picker := roulette.New(&roulette.Config{Seed: 11})
	pool := ParticipantPool{}
	names := []string{"Alice", "Bob", "Carol", "Dave", "Eve"}
	for _, name := range names {
		pool, _, _ = pool.Add(name)
	}

	shuffled := pool.Shuffle(picker)
	if len(shuffled) != len(names) {
		t.Fatalf("expected %d participants, got %d", len(names), len(shuffled))
	}
	assertDenseOrder(t, shuffled)

	counts := make(map[string]int)
	for _, name := range names {
		counts[name]++
	}
	for _, participant := range shuffled {
		counts[participant.Name]--
	}
	for name, n := range counts {
		if n != 0 {
			t.Fatalf("participant %q count off by %d", name, n)
		}
	}

	// The source pool keeps its own positions.
	assertDenseOrder(t, pool)
	if pool[0].Name != "Alice" {
		t.Fatalf("source pool mutated: %+v", pool)
	}
}

func TestParticipantOrderInvariantAcrossMutations(t *testing.T) {
	picker := roulette.New(&roulette.Config{Seed: 3})
	pool := ParticipantPool{}

	pool, _, _ = pool.Add("Alice")
	pool, bob, _ := pool.Add("Bob")
	pool = pool.Shuffle(picker)
	pool, _, _ = pool.Add("Carol")
	pool = pool.Remove(bob.ID)
	pool, _, _ = pool.Add("Dave")
	pool = pool.Shuffle(picker)

	if len(pool) != 3 {
		t.Fatalf("expected 3 participants, got %d", len(pool))
	}
	assertDenseOrder(t, pool)
}

func TestParticipantIsDuplicate(t *testing.T) {
	pool := ParticipantPool{}
	pool, _, _ = pool.Add("Alice")

	if !pool.IsDuplicate("  Alice ") {
		t.Fatalf("expected trimmed match to be duplicate")
	}
	if pool.IsDuplicate("alice") {
		t.Fatalf("matching is case-sensitive")
	}
	if pool.IsDuplicate("Bob") {
		t.Fatalf("unexpected duplicate")
	}
}

func TestParticipantRename(t *testing.T) {
	pool := ParticipantPool{}
	pool, alice, _ := pool.Add("Alice")

	renamed, err := pool.Rename(alice.ID, " Alicia ")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got, _ := renamed.Find(alice.ID); got.Name != "Alicia" {
		t.Fatalf("expected renamed participant, got %q", got.Name)
	}
	if _, err := pool.Rename(alice.ID, " "); err != domain.ErrInvalidName {
		t.Fatalf("expected invalid name error, got %v", err)
	}
	if _, err := pool.Rename("missing", "X"); err != domain.ErrParticipantNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
