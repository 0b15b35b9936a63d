// Package history provides the in-memory history engine: a prefix tree of
// declared histories, an equivalence graph layered over its nodes and the
// propagation that keeps energies equal across every equivalence class.
package history

import (
	"errors"
	"strconv"
	"strings"
)

// Alphabet is the number of symbols a history may be built from ("0".."3").
const Alphabet = 4

// Symbol is a single step of a history, in the range [0, Alphabet).
type Symbol uint8

// History is a non-empty sequence of symbols naming a path from the root.
type History []Symbol

// Energy is the value attached to a history. Zero means "unassigned".
type Energy uint64

// ErrUnknownHistory indicates that a referenced history was never declared
// (or has since been removed).
var ErrUnknownHistory = errors.New("unknown history")

// ErrInvalidHistory indicates an empty history or a symbol outside the alphabet.
var ErrInvalidHistory = errors.New("invalid history")

// ErrInvalidNumber indicates an energy numeral that is malformed, out of range or zero.
var ErrInvalidNumber = errors.New("invalid energy number")

// ErrNoEnergy indicates an equate between two histories neither of which has energy.
var ErrNoEnergy = errors.New("no energy to propagate")

// ParseHistory converts a string of digits '0'..'3' into a History.
func ParseHistory(s string) (History, error) {
	if s == "" {
		return nil, ErrInvalidHistory
	}
	h := make(History, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c >= '0'+Alphabet {
			return nil, ErrInvalidHistory
		}
		h[i] = Symbol(c - '0')
	}
	return h, nil
}

// ParseEnergy converts a decimal numeral into a strictly positive Energy.
func ParseEnergy(s string) (Energy, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, ErrInvalidNumber
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, ErrInvalidNumber
	}
	return Energy(v), nil
}

// String renders the history back into its digit form.
func (h History) String() string {
	var b strings.Builder
	b.Grow(len(h))
	for _, s := range h {
		b.WriteByte(byte('0' + s))
	}
	return b.String()
}

func (h History) validate() error {
	if len(h) == 0 {
		return ErrInvalidHistory
	}
	for _, s := range h {
		if s >= Alphabet {
			return ErrInvalidHistory
		}
	}
	return nil
}
