package model

// Principal is an opaque caller identity, such as a ledger address.
// The registry only compares principals for equality.
type Principal string

func (p Principal) String() string {
	return string(p)
}
