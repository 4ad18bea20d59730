package domain

import "regexp"

// Character-class detectors mirror pkg/validator's password-rule regexes so
// the registration policy and the vault's strength meter agree on what
// counts as "upper", "lower" and "digit"; "special" is any character that
// is not an ASCII letter or digit.
var (
	strengthUpper   = regexp.MustCompile(`[A-Z]`)
	strengthLower   = regexp.MustCompile(`[a-z]`)
	strengthDigit   = regexp.MustCompile(`[0-9]`)
	strengthSpecial = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// MaxStrength is the top of the fixed 0..4 strength scale (§4.5).
const MaxStrength = 4

// StrengthScore computes the deterministic 0..4 strength of secret:
// +1 length>=8, +1 length>=12, +1 has both upper and lower, +1 has a digit,
// +1 has a non-alphanumeric character, capped at MaxStrength.
func StrengthScore(secret string) int {
	if secret == "" {
		return 0
	}

	score := 0
	if len(secret) >= 8 {
		score++
	}
	if len(secret) >= 12 {
		score++
	}
	if strengthUpper.MatchString(secret) && strengthLower.MatchString(secret) {
		score++
	}
	if strengthDigit.MatchString(secret) {
		score++
	}
	if strengthSpecial.MatchString(secret) {
		score++
	}

	if score > MaxStrength {
		score = MaxStrength
	}
	return score
}

// ValidPasswordPolicy enforces the registration password policy (§4.3):
// at least 8 characters, containing upper, lower and digit.
func ValidPasswordPolicy(password string) bool {
	if len(password) < 8 {
		return false
	}
	return strengthUpper.MatchString(password) &&
		strengthLower.MatchString(password) &&
		strengthDigit.MatchString(password)
}
