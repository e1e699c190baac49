package ranking

// tieBreak is a djb2-style hash reduced into a small bounded range. Equal
// scores must order identically across calls, so ties are nudged by this
// deterministic value instead of randomness or insertion order.
func tieBreak(seed string, bound uint32) int {
	var hash uint32 = 5381
	for i := 0; i < len(seed); i++ {
		hash = hash*33 + uint32(seed[i])
	}
	return int(hash % bound)
}
