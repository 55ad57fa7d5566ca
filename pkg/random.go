package pkg

import "math/rand"

// RandCode builds an n-digit numeric join code. Uniqueness against live
// games is the caller's job.
func RandCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rand.Intn(10))
	}
	return string(b)
}
