package utils

import "unicode"

// IsValidUsername accepts 3-32 characters of letters, digits, underscores and
// hyphens, starting with a letter.
func IsValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 32 {
		return false
	}
	for i, char := range username {
		switch {
		case unicode.IsLetter(char):
		case i > 0 && (unicode.IsDigit(char) || char == '_' || char == '-'):
		default:
			return false
		}
	}
	return true
}
