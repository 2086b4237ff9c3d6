package detector

// ClassifyThreeWay maps a continuous [0,1] score onto one of three ordered
// levels using a confident/somewhat threshold pair, the shared three-way
// classification shape used by the eye, hand, and voice modalities. levels
// must be ordered [confident, somewhat, not-confident].
func ClassifyThreeWay[T ~string](score, confidentThreshold, somewhatThreshold float64, levels [3]T) (T, float64) {
	switch {
	case score > confidentThreshold:
		return levels[0], score
	case score > somewhatThreshold:
		return levels[1], score
	default:
		return levels[2], 1 - score
	}
}
