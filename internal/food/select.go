package food

// SelectRepresentative downsamples frames to at most k evenly spaced entries.
// With more than k frames it takes every floor(len/k)-th frame starting at
// index 0 until k are collected. The result is deterministic and
// order-preserving, and selecting from its own output returns it unchanged.
func SelectRepresentative[T any](frames []T, k int) []T {
	if k < 1 {
		return []T{}
	}
	if len(frames) <= k {
		out := make([]T, len(frames))
		copy(out, frames)
		return out
	}

	step := len(frames) / k
	out := make([]T, 0, k)
	for i := 0; i < len(frames) && len(out) < k; i += step {
		out = append(out, frames[i])
	}
	return out
}
