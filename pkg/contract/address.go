package contract

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var hexAddressPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{40}$`)

// IsAddress reports whether value is a well-formed account address. The
// prefix, when present, must be a lowercase 0x. Mixed case input must carry a
// valid EIP-55 checksum.
func IsAddress(value string) bool {
	if !hexAddressPattern.MatchString(value) {
		return false
	}

	digits := value
	if len(digits) == 42 {
		digits = digits[2:]
	}
	if digits == strings.ToLower(digits) || digits == strings.ToUpper(digits) {
		return true
	}

	return common.HexToAddress(digits).Hex()[2:] == digits
}

// NormalizeAddress returns the checksummed form of a well-formed address.
func NormalizeAddress(value string) (common.Address, bool) {
	trimmed := strings.TrimSpace(value)
	if !IsAddress(trimmed) {
		return common.Address{}, false
	}
	return common.HexToAddress(trimmed), true
}

// SameAddress compares two addresses ignoring letter casing.
func SameAddress(a string, b string) bool {
	left := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(a)), "0x")
	right := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(b)), "0x")
	return left != "" && left == right
}
