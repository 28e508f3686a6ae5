// Package emmas adapts the abstract EMM-AS SAP. The underlying S1AP/RRC
// transport to the UE is out of scope (spec.md §1): this adapter's job
// ends at handing the primitive to whatever carries it onward — here,
// structured logging, standing in for "encode and push onto the S1AP
// link".
package emmas

import (
	"go.uber.org/zap"

	"github.com/your-org/epc-mme/nf/mme/internal/sap"
)

// Adapter is the default ASSAP implementation.
type Adapter struct {
	logger *zap.Logger
}

// NewAdapter constructs an emmas.Adapter.
func NewAdapter(logger *zap.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// EstablishCNF implements sap.ASSAP: Attach Accept.
func (a *Adapter) EstablishCNF(msg sap.EstablishCNF) error {
	a.logger.Info("EMMAS_ESTABLISH_CNF",
		zap.Uint32("ueid", uint32(msg.UEID)),
		zap.Uint32("mtmsi", msg.GUTI.MTMSI),
		zap.Bool("new_guti", msg.NewGUTI != nil),
		zap.Int("nas_msg_len", len(msg.NASMsg)),
	)
	return nil
}

// EstablishREJ implements sap.ASSAP: Attach Reject.
func (a *Adapter) EstablishREJ(msg sap.EstablishREJ) error {
	a.logger.Warn("EMMAS_ESTABLISH_REJ",
		zap.Uint32("ueid", uint32(msg.UEID)),
		zap.Uint8("cause", uint8(msg.EMMCause)),
	)
	return nil
}

// Recorder is a test double recording every primitive sent, used by the
// Attach Coordinator's end-to-end scenario tests.
type Recorder struct {
	Accepts []sap.EstablishCNF
	Rejects []sap.EstablishREJ
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// EstablishCNF implements sap.ASSAP.
func (r *Recorder) EstablishCNF(msg sap.EstablishCNF) error {
	r.Accepts = append(r.Accepts, msg)
	return nil
}

// EstablishREJ implements sap.ASSAP.
func (r *Recorder) EstablishREJ(msg sap.EstablishREJ) error {
	r.Rejects = append(r.Rejects, msg)
	return nil
}
