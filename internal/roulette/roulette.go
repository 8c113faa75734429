package roulette

import (
	"math/rand"
	"time"

	"dollyeo/internal/domain"
)

// Picker provides the uniform random draws behind the wheel: index
// selection, item selection, and Fisher-Yates shuffling.
type Picker struct {
	rnd *rand.Rand
}

// Config for the picker.
type Config struct {
	// Optional seed for deterministic tests.
	Seed int64
}

// New creates a picker, seeded from the wall clock unless a seed is given.
func New(cfg *Config) *Picker {
	var seed int64
	if cfg != nil && cfg.Seed != 0 {
		seed = cfg.Seed
	} else {
		seed = time.Now().UnixNano()
	}
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// RandomIndex returns a uniform index in [0, length).
func (p *Picker) RandomIndex(length int) (int, error) {
	if length <= 0 {
		return 0, domain.ErrInvalidLength
	}
	return p.rnd.Intn(length), nil
}

// SpinDuration returns base plus a uniform random slice of variance.
// It only paces the reveal of a result that is already decided.
func (p *Picker) SpinDuration(base, variance time.Duration) time.Duration {
	if variance <= 0 {
		return base
	}
	return base + time.Duration(p.rnd.Int63n(int64(variance)+1))
}

// SelectRandom returns one element of items chosen uniformly at random.
// The input is never mutated.
func SelectRandom[T any](p *Picker, items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, domain.ErrEmptyItems
	}
	i, err := p.RandomIndex(len(items))
	if err != nil {
		return zero, err
	}
	return items[i], nil
}

// Shuffle returns a new slice with the same elements in a uniformly random
// permutation (Fisher-Yates). The input is never mutated; empty and
// single-element inputs come back as plain copies.
func Shuffle[T any](p *Picker, items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := p.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
