// Package diff implements the Parameter Diff component: a pure predicate
// deciding whether a new Attach Request materially differs from the
// context of an in-flight Attach (spec.md §4.3).
package diff

import (
	"bytes"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// Request carries the subset of an Attach Request's fields the diff
// cares about. The TAI and the opaque ESM message are deliberately
// excluded (spec.md §4.3).
type Request struct {
	IsEmergency bool
	KSI         uint8
	EEA         uint8
	EIA         uint8
	UMTSPresent bool
	UCS2        bool
	UEA         uint8
	UIA         uint8
	GPRSPresent bool
	GEA         uint8
	GUTI        *emmcontext.GUTI
	IMSI        []byte
	IMEI        []byte
}

// ParametersHaveChanged compares req against ctx's currently stored
// attach parameters, evaluated in the exact order and short-circuiting
// behavior of the original _emm_attach_have_changed: emergency flag, KSI,
// EEA, EIA, umts_present; then (both UMTS-capable) UCS2, UEA, UIA; then
// gprs_present; then (both GPRS-capable) GEA; then GUTI, then IMSI, then
// IMEI.
func ParametersHaveChanged(ctx *emmcontext.UEContext, req Request) bool {
	if ctx.IsEmergency != req.IsEmergency {
		return true
	}
	if ctx.KSI != req.KSI {
		return true
	}
	if ctx.EEA != req.EEA {
		return true
	}
	if ctx.EIA != req.EIA {
		return true
	}
	if ctx.UMTSPresent != req.UMTSPresent {
		return true
	}
	if ctx.UMTSPresent && req.UMTSPresent {
		if ctx.UCS2 != req.UCS2 {
			return true
		}
		if ctx.UEA != req.UEA {
			return true
		}
		if ctx.UIA != req.UIA {
			return true
		}
	}
	if ctx.GPRSPresent != req.GPRSPresent {
		return true
	}
	if ctx.GPRSPresent && req.GPRSPresent {
		if ctx.GEA != req.GEA {
			return true
		}
	}
	if gutiChanged(ctx.LastReqGUTI, req.GUTI) {
		return true
	}
	if nilAsymmetryOrDiffer(ctx.IMSI, req.IMSI) {
		return true
	}
	if nilAsymmetryOrDiffer(ctx.IMEI, req.IMEI) {
		return true
	}
	return false
}

func gutiChanged(have, want *emmcontext.GUTI) bool {
	if (have == nil) != (want == nil) {
		return true
	}
	if have == nil || want == nil {
		return false
	}
	if have.MTMSI != want.MTMSI {
		return true
	}
	if have.GUMMEI != want.GUMMEI {
		return true
	}
	return false
}

func nilAsymmetryOrDiffer(have, want []byte) bool {
	if (have == nil) != (want == nil) {
		return true
	}
	if have == nil || want == nil {
		return false
	}
	return !bytes.Equal(have, want)
}
