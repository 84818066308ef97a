package common

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
