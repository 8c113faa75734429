package roulette

import (
	"testing"
	"time"

	"dollyeo/internal/domain"
)

func TestRandomIndexBoundsAndCoverage(t *testing.T) {
	picker := New(&Config{Seed: 42})

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		idx, err := picker.RandomIndex(5)
		if err != nil {
			t.Fatalf("random index: %v", err)
		}
		if idx < 0 || idx >= 5 {
			t.Fatalf("index %d out of [0,5)", idx)
		}
		seen[idx] = true
	}
	if len(seen) != 5 {
		t.Fatalf("expected all 5 indexes reachable, saw %d", len(seen))
	}
}

func TestRandomIndexRejectsNonPositiveLength(t *testing.T) {
	picker := New(nil)

	if _, err := picker.RandomIndex(0); err != domain.ErrInvalidLength {
		t.Fatalf("expected invalid length error, got %v", err)
	}
	if _, err := picker.RandomIndex(-3); err != domain.ErrInvalidLength {
		t.Fatalf("expected invalid length error, got %v", err)
	}
}

func TestSelectRandomEmptyFails(t *testing.T) {
	picker := New(nil)

	if _, err := SelectRandom(picker, []string{}); err != domain.ErrEmptyItems {
		t.Fatalf("expected empty items error, got %v", err)
	}
}

func TestSelectRandomDoesNotMutateInput(t *testing.T) {
	picker := New(&Config{Seed: 7})
	items := []string{"a", "b", "c"}

	picked, err := SelectRandom(picker, items)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if picked != "a" && picked != "b" && picked != "c" {
		t.Fatalf("picked unexpected element %q", picked)
	}
	if items[0] != "a" || items[1] != "b" || items[2] != "c" {
		t.Fatalf("input mutated: %v", items)
	}
}

func TestShuffleIsAPermutation(t *testing.T) {
	picker := New(&Config{Seed: 99})
	items := []string{"q1", "q2", "q3", "q4", "q5"}

	shuffled := Shuffle(picker, items)
	if len(shuffled) != len(items) {
		t.Fatalf("expected length %d, got %d", len(items), len(shuffled))
	}

	counts := make(map[string]int)
	for _, item := range items {
		counts[item]++
	}
	for _, item := range shuffled {
		counts[item]--
	}
	for item, n := range counts {
		if n != 0 {
			t.Fatalf("element %q count off by %d", item, n)
		}
	}

	// Original must be untouched.
	for i, item := range []string{"q1", "q2", "q3", "q4", "q5"} {
		if items[i] != item {
			t.Fatalf("input mutated at %d: %v", i, items)
		}
	}
}

func TestShuffleSmallInputsReturnCopies(t *testing.T) {
	picker := New(nil)

	empty := Shuffle(picker, []int{})
	if len(empty) != 0 {
		t.Fatalf("expected empty copy, got %v", empty)
	}

	single := []int{7}
	out := Shuffle(picker, single)
	if len(out) != 1 || out[0] != 7 {
		t.Fatalf("expected single-element copy, got %v", out)
	}
	out[0] = 8
	if single[0] != 7 {
		t.Fatalf("copy aliases input")
	}
}

func TestSpinDurationWithinRange(t *testing.T) {
	picker := New(&Config{Seed: 5})
	base := 3 * time.Second
	variance := time.Second

	for i := 0; i < 100; i++ {
		d := picker.SpinDuration(base, variance)
		if d < base || d > base+variance {
			t.Fatalf("duration %v outside [%v, %v]", d, base, base+variance)
		}
	}

	if d := picker.SpinDuration(base, 0); d != base {
		t.Fatalf("expected base with zero variance, got %v", d)
	}
}
