package domain

// IDLength is the length of a stored record id: 12 random bytes, hex encoded.
const IDLength = 24

// ValidID reports whether s has the shape of a stored record id.
func ValidID(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
