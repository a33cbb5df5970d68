package fft

// GreatestPrimeFactorOf returns the largest prime factor of n, or 1 for n <= 1.
func GreatestPrimeFactorOf(n int) int {
	if n <= 1 {
		return 1
	}
	largest := 1
	for f := 2; f*f <= n; f++ {
		for n%f == 0 {
			largest = f
			n /= f
		}
	}
	if n > 1 {
		largest = n
	}
	return largest
}

// NextFriendlySize returns the smallest length >= n whose prime factors are
// all at most maxPrime. maxPrime below 2 is treated as 2.
func NextFriendlySize(n, maxPrime int) int {
	if maxPrime < 2 {
		maxPrime = 2
	}
	if n < 1 {
		n = 1
	}
	for GreatestPrimeFactorOf(n) > maxPrime {
		n++
	}
	return n
}

// Feasible reports whether every axis length transforms efficiently on engine.
func Feasible(engine Engine, size ...int) bool {
	for _, n := range size {
		if GreatestPrimeFactorOf(n) > engine.GreatestPrimeFactor() {
			return false
		}
	}
	return true
}
