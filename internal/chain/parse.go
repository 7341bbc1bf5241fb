package chain

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

const pubkeyLength = 32

// ParseAddresses validates base58 public keys and drops blanks and duplicates.
func ParseAddresses(inputs []string) ([]string, error) {
	addresses := make([]string, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !IsAddress(input) {
			return nil, fmt.Errorf("invalid address: %s", input)
		}
		if _, ok := seen[input]; ok {
			continue
		}
		seen[input] = struct{}{}
		addresses = append(addresses, input)
	}
	return addresses, nil
}

// IsAddress reports whether input decodes to a 32-byte public key.
func IsAddress(input string) bool {
	raw, err := base58.Decode(input)
	return err == nil && len(raw) == pubkeyLength
}
