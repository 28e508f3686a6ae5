// Package sap defines the three Service Access Points the Attach
// Coordinator talks across (spec.md §6): EMM-REG (internal notification
// bus), EMM-AS (toward the access stratum), and ESM (session management).
// Each is a small Go interface with one concrete adapter implementing it,
// injected into the Coordinator at construction — the same pattern the
// teacher uses for its AUSFClient/NRFClient adapters injected into
// RegistrationService.
package sap

import emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"

// RegPrimitive enumerates the EMM-REG SAP primitives emitted by the
// Attach Coordinator.
type RegPrimitive uint8

const (
	RegProcAbort RegPrimitive = iota
	RegAttachCNF
	RegAttachREJ
	RegCommonProcREQ
	RegProcAbortRelease // EMMREG_PROC_ABORT emitted from Release (spec.md §4.10)
)

// RegEvent is one EMM-REG SAP notification.
type RegEvent struct {
	Primitive RegPrimitive
	UEID      emmcontext.UEID
	Ctx       *emmcontext.UEContext
}

// RegSAP is the internal notification bus the Attach Coordinator posts
// state transitions onto.
type RegSAP interface {
	Notify(event RegEvent)
}

// SecurityContextDescriptor mirrors "a populated security-context
// descriptor" (spec.md §4.8): which algorithms were selected and whether
// the AS peer should switch to a freshly installed security context in
// each direction.
type SecurityContextDescriptor struct {
	Encryption      uint8
	Integrity       uint8
	UseNewContextUL bool
	UseNewContextDL bool
}

// EstablishCNF is the EMMAS_ESTABLISH_CNF primitive: Attach Accept as
// seen by the access stratum (spec.md §6, §4.8).
type EstablishCNF struct {
	UEID      emmcontext.UEID
	GUTI      emmcontext.GUTI
	NewGUTI   *emmcontext.GUTI
	NTacs     uint8
	TAC       uint16
	NASInfo   string // "ATTACH"
	NASMsg    []byte
	Sctx      SecurityContextDescriptor
}

// EstablishREJ is the EMMAS_ESTABLISH_REJ primitive: Attach Reject as
// seen by the access stratum.
type EstablishREJ struct {
	UEID     emmcontext.UEID
	EMMCause emmcontext.CauseCode
	NASInfo  string // "ATTACH"
	NASMsg   []byte // empty, or the buffered ESM_FAILURE reply
	Sctx     SecurityContextDescriptor
}

// ASSAP is the SAP toward the access stratum.
type ASSAP interface {
	EstablishCNF(msg EstablishCNF) error
	EstablishREJ(msg EstablishREJ) error
}

// ESMResult is the disposition ESM reports back for a PDN connectivity
// request.
type ESMResult uint8

const (
	ESMSuccess ESMResult = iota
	ESMDiscarded
	ESMOtherFailure
)

// PDNConnectivityRequest is the input to ESM's PDN_CONNECTIVITY_REQ
// primitive.
type PDNConnectivityRequest struct {
	UEID         emmcontext.UEID
	Ctx          *emmcontext.UEContext
	Recv         []byte // the buffered esm_msg from the Attach Request
	IsStandalone bool
}

// PDNConnectivityResponse is ESM's reply to PDN_CONNECTIVITY_REQ.
type PDNConnectivityResponse struct {
	Send []byte
	Err  ESMResult
}

// ESMSAP is the SAP toward session management.
type ESMSAP interface {
	PDNConnectivityREQ(req PDNConnectivityRequest) (PDNConnectivityResponse, error)
	PDNConnectivityREJ(ueid emmcontext.UEID, cause emmcontext.CauseCode) error
	DefaultEPSBearerContextActivateCNF(ueid emmcontext.UEID, esmMsg []byte) (ESMResult, error)
}
