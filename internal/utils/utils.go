package utils

// Returns the truncated average of the given channel values
func Average(channels ...byte) byte {
	if len(channels) == 0 {
		return 0
	}

	// Sum all channels
	var sum int
	for _, c := range channels {
		sum += int(c)
	}

	// Divide sum by total channels
	return byte(sum / len(channels))
}
