// Package mmeapi is the MME API collaborator spec.md §6 places behind
// identification, GUTI allocation, and the auth-info request: a
// subscriber database plus authentication-vector generation, normally an
// external HSS in a full EPC. Two backing stores are provided (memory,
// ClickHouse); MILENAGE vector generation is supplemented locally so the
// repository runs end-to-end without a live HSS (see SPEC_FULL.md).
package mmeapi

import (
	"context"
	"errors"

	"github.com/google/uuid"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// ErrNotFound is returned when a subscriber record cannot be resolved.
var ErrNotFound = errors.New("mmeapi: subscriber not found")

// SubscriberRecord is the HSS-equivalent row the MME API's identify_*
// and GUTI operations are driven from.
type SubscriberRecord struct {
	IMSI  []byte
	IMEI  []byte
	K     []byte // subscriber key
	OPc   []byte
	SQN   []byte // 6-byte sequence number, monotonically advanced per vector
	AMF   []byte // 2-byte authentication management field
}

// GUTIAllocation is the result of NewGUTI: a freshly synthesized GUTI
// plus the TAC/n_tacs to install alongside it (spec.md §6).
type GUTIAllocation struct {
	GUTI  emmcontext.GUTI
	TAC   uint16
	NTacs uint8
}

// AuthInfoRequest is the one-way out-of-band notification spec.md §6
// describes for the built-in-EPC auth-info round trip.
type AuthInfoRequest struct {
	CorrelationID uuid.UUID
	UEID          emmcontext.UEID
	IMSI          []byte
	NumVectors    int
}

// AuthInfoResponse is the reply to an AuthInfoRequest, arriving later and
// resuming the Identify phase via callback.
type AuthInfoResponse struct {
	CorrelationID uuid.UUID
	UEID          emmcontext.UEID
	Vector        *emmcontext.AuthVector
	Err           error
}

// MMEAPI is the collaborator interface Phase: Identify and the Context
// Updater call through.
type MMEAPI interface {
	// IdentifyIMSI populates an auth vector for a known IMSI.
	IdentifyIMSI(ctx context.Context, imsi []byte) (*emmcontext.AuthVector, error)
	// IdentifyGUTI resolves a GUTI to an IMSI and populates an auth vector.
	IdentifyGUTI(ctx context.Context, guti emmcontext.GUTI) ([]byte, *emmcontext.AuthVector, error)
	// IdentifyIMEI validates an IMEI for emergency-attach-without-IMSI.
	IdentifyIMEI(ctx context.Context, imei []byte) error

	// NewGUTI synthesizes a fresh GUTI for imsi using the MME's own
	// GUAMI/PLMN configuration (spec.md §4.4).
	NewGUTI(ctx context.Context, imsi []byte) (GUTIAllocation, error)

	// NotifyUEIDChanged is called on a rekey (spec.md §4.1 step 3).
	NotifyUEIDChanged(oldUEID, newUEID emmcontext.UEID)
	// NotifyNewGUTI is called whenever a context's GUTI is (re)installed.
	NotifyNewGUTI(ueid emmcontext.UEID, guti emmcontext.GUTI)

	// FindMNCLength decodes whether an MNC is 2 or 3 digits long from the
	// first six IMSI digits (spec.md §4.4, §6).
	FindMNCLength(imsiDigits [6]byte) (int, error)

	// RequestAuthInfo issues the out-of-band auth-info request described
	// in spec.md §6; the asynchronous reply is delivered to the Attach
	// Coordinator's AuthInfoResponse.
	RequestAuthInfo(req AuthInfoRequest) error
}
