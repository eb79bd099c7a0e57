package feature

// DistanceMagnitudes is the number of distance buckets per direction.
const DistanceMagnitudes = 5

// BinDist buckets a signed head-minus-modifier offset. Magnitudes clamp at
// DistanceMagnitudes and negative offsets are shifted past the positive ones,
// giving values in [0, 2*DistanceMagnitudes).
func BinDist(x int) int {
	add := 0
	if x < 0 {
		x = -x
		add = DistanceMagnitudes
	}
	if x > DistanceMagnitudes {
		x = DistanceMagnitudes
	}
	return x + add - 1
}

// Direction is the suffix used by the selective templates: 1 when the head
// follows the modifier, 2 otherwise.
func Direction(h, m int) int {
	if h > m {
		return 1
	}
	return 2
}
