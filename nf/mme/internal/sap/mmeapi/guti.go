package mmeapi

import (
	"fmt"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// imsiDigit returns the n-th digit (0-indexed) of an ASCII-digit IMSI.
func imsiDigit(imsi []byte, n int) (byte, error) {
	if n >= len(imsi) {
		return 0, fmt.Errorf("imsi too short: need digit %d, have %d digits", n, len(imsi))
	}
	d := imsi[n]
	if d < '0' || d > '9' {
		return 0, fmt.Errorf("imsi contains non-digit byte at position %d", n)
	}
	return d - '0', nil
}

// SynthesizeGUTI builds a GUTI from the MME's own GUAMI (MMEGroupID,
// MMECode) and the subscriber's IMSI, per spec.md §4.4: the third MNC
// digit is placed in the "unused" nibble position 15 when the MNC is
// two digits long, or carries the real third digit when three digits
// long. mTMSI is a freshly allocated value (e.g. a random uint32 or a
// monotonically increasing counter, depending on the caller).
func SynthesizeGUTI(imsi []byte, mmeGroupID uint16, mmeCode uint8, mncLength int, mTMSI uint32) (emmcontext.GUTI, error) {
	d1, err := imsiDigit(imsi, 0)
	if err != nil {
		return emmcontext.GUTI{}, err
	}
	d2, err := imsiDigit(imsi, 1)
	if err != nil {
		return emmcontext.GUTI{}, err
	}
	d3, err := imsiDigit(imsi, 2)
	if err != nil {
		return emmcontext.GUTI{}, err
	}
	d4, err := imsiDigit(imsi, 3)
	if err != nil {
		return emmcontext.GUTI{}, err
	}
	d5, err := imsiDigit(imsi, 4)
	if err != nil {
		return emmcontext.GUTI{}, err
	}

	mcc := fmt.Sprintf("%d%d%d", d1, d2, d3)

	var mnc string
	switch mncLength {
	case 2:
		// MNCdigit3 is the "unused" nibble, conventionally encoded as 15
		// (0xF) on the wire; the decimal string representation carries
		// only the two real digits.
		mnc = fmt.Sprintf("%d%d", d4, d5)
	case 3:
		d6, err := imsiDigit(imsi, 5)
		if err != nil {
			return emmcontext.GUTI{}, err
		}
		// MNC digit placement per spec.md §4.4: digit1,2,3 sourced from
		// imsi digit5, digit6, digit4 respectively.
		mnc = fmt.Sprintf("%d%d%d", d5, d6, d4)
	default:
		return emmcontext.GUTI{}, fmt.Errorf("invalid MNC length %d (must be 2 or 3)", mncLength)
	}

	return emmcontext.GUTI{
		GUMMEI: emmcontext.GUMMEI{
			PLMN:       emmcontext.PLMNID{MCC: mcc, MNC: mnc},
			MMEGroupID: mmeGroupID,
			MMECode:    mmeCode,
		},
		MTMSI: mTMSI,
	}, nil
}

// FindMNCLength decodes whether the MNC following mcc is two or three
// digits long, by comparing against the MME's own configured home PLMN.
// A full implementation would consult an MCC/MNC table (as a real HSS
// does); this MME only serves its own home PLMN, so an IMSI whose MCC
// matches the home MCC takes the home MNC's length, and an IMSI with any
// other MCC defaults to 2 (the globally more common case).
func FindMNCLength(imsi []byte, homeMCC, homeMNC string) (int, error) {
	if len(imsi) < 6 {
		return 0, fmt.Errorf("imsi too short to decode MNC length")
	}
	mcc := string(imsi[0:3])
	if mcc != homeMCC {
		return 2, nil
	}
	candidate3 := string(imsi[3:6])
	if candidate3 == homeMNC && len(homeMNC) == 3 {
		return 3, nil
	}
	return len(homeMNC), nil
}
