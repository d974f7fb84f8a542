package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"equipment-registry-backend/internal/model"
)

func TestParsePrincipal(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  model.Principal
		expectErr bool
	}{
		{
			name:     "Testnet address",
			raw:      "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM",
			expected: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM",
		},
		{
			name:     "Mainnet address",
			raw:      "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
			expected: "SP2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKNRV9EJ7",
		},
		{
			name:     "Lowercase with surrounding spaces",
			raw:      "  st2pqhqkv0rjxzfy1dgx8mnsnyve3vgzjsrtpgzgm ",
			expected: "ST2PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM",
		},
		{
			name:     "Contract principal keeps contract case",
			raw:      "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM.Hospital-Intake",
			expected: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM.Hospital-Intake",
		},
		{name: "Empty", raw: "   ", expectErr: true},
		{name: "Unknown network", raw: "SX1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM", expectErr: true},
		{name: "Excluded c32 letter", raw: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGO", expectErr: true},
		{name: "Too short", raw: "ST1PQHQ", expectErr: true},
		{name: "Bad contract name", raw: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM.1intake", expectErr: true},
		{name: "Empty contract name", raw: "ST1PQHQKV0RJXZFY1DGX8MNSNYVE3VGZJSRTPGZGM.", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParsePrincipal(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, result)
			}
		})
	}
}
