package parse

import (
	"fmt"
	"regexp"
	"strings"

	"equipment-registry-backend/internal/model"
)

var (
	// Standard principals: "S" + network version + c32check body (no I, L, O, U).
	addressRe = regexp.MustCompile(`^S[PMTN][0-9ABCDEFGHJKMNPQRSTVWXYZ]{28,41}$`)
	// Contract principals append ".<contract-name>".
	contractRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,39}$`)
)

// ParsePrincipal normalises and validates a principal token. The address
// part is upper-cased; a contract name suffix keeps its case.
func ParsePrincipal(raw string) (model.Principal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty principal")
	}

	address, contract, hasContract := strings.Cut(s, ".")
	address = strings.ToUpper(address)

	if !addressRe.MatchString(address) {
		return "", fmt.Errorf("invalid principal address: %q", raw)
	}
	if !hasContract {
		return model.Principal(address), nil
	}
	if !contractRe.MatchString(contract) {
		return "", fmt.Errorf("invalid contract name in principal: %q", raw)
	}
	return model.Principal(address + "." + contract), nil
}
