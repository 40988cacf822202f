// Package hwid models the hardware identity emitted by the desktop
// fingerprint tool. Two shapes exist in the wild: a machine UUID, and a
// 10-15 digit decimal number derived from the primary MAC address. The
// identity is parsed once at the request boundary; storage and wire
// formats keep the canonical string form.
package hwid

import (
	"errors"

	"github.com/google/uuid"
)

type Kind string

const (
	KindUUID       Kind = "uuid"
	KindNumericMAC Kind = "numeric_mac"
)

var ErrInvalidFormat = errors.New("invalid hwid format: must be a UUID or a MAC address number (from the HWID tool)")

type HardwareID struct {
	value string
	kind  Kind
}

// Parse validates raw against the two accepted fingerprint shapes.
func Parse(raw string) (HardwareID, error) {
	if isCanonicalUUID(raw) {
		return HardwareID{value: raw, kind: KindUUID}, nil
	}
	if isNumericMAC(raw) {
		return HardwareID{value: raw, kind: KindNumericMAC}, nil
	}
	return HardwareID{}, ErrInvalidFormat
}

func (h HardwareID) String() string {
	return h.value
}

func (h HardwareID) Kind() Kind {
	return h.kind
}

func (h HardwareID) IsZero() bool {
	return h.value == ""
}

// isCanonicalUUID accepts only the hyphenated 36-character form;
// uuid.Parse alone would also admit URN and braced variants.
func isCanonicalUUID(raw string) bool {
	if len(raw) != 36 {
		return false
	}
	_, err := uuid.Parse(raw)
	return err == nil
}

func isNumericMAC(raw string) bool {
	if len(raw) < 10 || len(raw) > 15 {
		return false
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
