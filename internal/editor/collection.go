package editor

import "slices"

// The helpers below never modify their input slice. Each returns a fresh
// collection value that the Document then installs as a whole.

func appended[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func without[T any](s []T, i int) ([]T, bool) {
	if i < 0 || i >= len(s) {
		return s, false
	}
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...), true
}

func replaced[T any](s []T, i int, edit func(*T)) ([]T, bool) {
	if i < 0 || i >= len(s) {
		return s, false
	}
	out := slices.Clone(s)
	edit(&out[i])
	return out, true
}

// toggled adds v to s when absent and removes every occurrence otherwise.
func toggled[E comparable](s []E, v E) []E {
	if !slices.Contains(s, v) {
		return appended(s, v)
	}
	out := make([]E, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func sumWeights[T any](s []T, weight func(T) float64) float64 {
	var total float64
	for _, e := range s {
		total += weight(e)
	}
	return total
}
