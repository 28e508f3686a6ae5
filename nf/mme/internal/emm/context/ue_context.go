// Package context models the UE EMM Context, its nested security and
// identity state, and the Context Store that indexes contexts by their
// lower-layer id and by GUTI.
package context

import (
	"sync"
)

// UEID is the stable UE lower-layer identifier the Attach Coordinator keys
// contexts by (the S1AP/MME-UE-S1AP-ID in a full stack).
type UEID uint32

// AttachType enumerates the EMM attach types carried on an Attach Request.
type AttachType uint8

const (
	AttachTypeEPS AttachType = iota
	AttachTypeIMSI
	AttachTypeEmergency
	AttachTypeReserved
)

// EMMFSMStatus is the coarse EMM finite-state label the Attach Coordinator
// transitions a context through.
type EMMFSMStatus uint8

const (
	EMMFSMInvalid EMMFSMStatus = iota
	EMMFSMDeregistered
	EMMFSMDeregisteredInit
	EMMFSMCommonProcedureInit
	EMMFSMRegistered
)

// CauseCode is an EMM cause as carried on Attach Reject and logged on the
// context's cause register.
type CauseCode uint8

const (
	CauseSuccess CauseCode = iota
	CauseIllegalUE
	CauseIMEINotAccepted
	CauseESMFailure
	CauseProtocolError
)

// TimerID identifies an armed EMM timer. The zero value, TimerInactive,
// means the corresponding timer is not running. The Attach Coordinator's
// timer handler owns the actual time.Timer; the context only remembers
// whether one is outstanding and which one.
type TimerID string

// TimerInactive is the sentinel value of a disarmed timer.
const TimerInactive TimerID = ""

// PLMNID is a Mobile Country Code / Mobile Network Code pair.
type PLMNID struct {
	MCC string
	MNC string
}

// GUMMEI is a Globally Unique MME Identifier: PLMN + MME group id + MME code.
type GUMMEI struct {
	PLMN       PLMNID
	MMEGroupID uint16
	MMECode    uint8
}

// GUTI is a Globally Unique Temporary Identity: a GUMMEI plus an m-TMSI.
// It is comparable and usable as a map key, which backs the Context
// Store's secondary index.
type GUTI struct {
	GUMMEI GUMMEI
	MTMSI  uint32
}

// AuthVector is the authentication vector staged for the Authentication
// common procedure.
type AuthVector struct {
	RAND  []byte
	AUTN  []byte
	XRES  []byte
	KASME []byte
}

// SecurityContext holds the NAS security material installed for a UE.
// Security keys exist if and only if a SecurityContext has been installed
// (never partial) — per spec.md §3.
type SecurityContext struct {
	KSIType             KSIType
	SelectedIntegrity    uint8
	SelectedCiphering    uint8
	KASME                []byte
	KNASenc              []byte
	KNASint              []byte
}

// KSIType distinguishes whether the security-key-set-identifier currently
// installed is native or mapped, or simply not (yet) available.
type KSIType uint8

const (
	KSINotAvailable KSIType = iota
	KSINative
	KSIMapped
)

// Wipe zeroes the key material buffers in place. Called on release so
// sensitive bytes never outlive the SecurityContext struct itself.
func (sc *SecurityContext) Wipe() {
	if sc == nil {
		return
	}
	zero(sc.KASME)
	zero(sc.KNASenc)
	zero(sc.KNASint)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// UEContext is the per-UE EMM context: identity, attach parameters,
// location, security material, the in-flight ESM message, and timers.
// It is mutated only by the Attach Coordinator and the common-procedure
// callbacks it invokes (spec.md §3).
type UEContext struct {
	mu sync.Mutex

	UEID UEID

	// Identity
	IMSI        []byte
	IMEI        []byte
	GUTI        *GUTI
	OldGUTI     *GUTI
	GUTIIsNew   bool

	// LastReqGUTI is the GUTI field as carried on the most recently applied
	// Attach Request, distinct from GUTI (the currently serving, possibly
	// network-allocated, identity). The Parameter Diff compares against
	// this field so that a network-assigned GUTI never makes an otherwise
	// identical retransmission look like a changed request (spec.md §4.3).
	LastReqGUTI *GUTI

	// Attach parameters
	AttachType   AttachType
	KSI          uint8
	EEA          uint8
	EIA          uint8
	UCS2         bool
	UEA          uint8
	UIA          uint8
	GEA          uint8
	UMTSPresent  bool
	GPRSPresent  bool
	IsEmergency  bool
	IsAttached   bool
	IsDynamic    bool

	// Location
	TAC   uint16
	NTacs uint8

	// Security
	Security *SecurityContext
	AuthVec  *AuthVector

	// In-flight Attach
	ESMMsg []byte

	// Timers
	T3450 TimerID
	T3460 TimerID
	T3470 TimerID

	// FSM
	FSMStatus EMMFSMStatus
	EMMCause  CauseCode

	// GUTIReallocation is a transient flag raised by Phase: Identify's IMSI
	// path (spec.md §4.5) and consumed once identification resolves.
	GUTIReallocation bool
}

// NewUEContext creates a fresh dynamic context, all fields zeroed, timers
// inactive, FSM set to DEREGISTERED (spec.md §4.1 step 5).
func NewUEContext(ueid UEID) *UEContext {
	return &UEContext{
		UEID:      ueid,
		IsDynamic: true,
		FSMStatus: EMMFSMDeregistered,
		EMMCause:  CauseSuccess,
		T3450:     TimerInactive,
		T3460:     TimerInactive,
		T3470:     TimerInactive,
	}
}

// Lock/Unlock expose the per-context mutex so the Attach Coordinator can
// guard the full run of one event (spec.md §5: "a per-context sync.Mutex
// held for the full run of one event").
func (c *UEContext) Lock()   { c.mu.Lock() }
func (c *UEContext) Unlock() { c.mu.Unlock() }

// PastDeregistered reports whether the context's FSM status is strictly greater than
// DEREGISTERED, the test the Attach Coordinator guards step 4 on.
func (c *UEContext) PastDeregistered() bool {
	return c.FSMStatus > EMMFSMDeregistered
}
