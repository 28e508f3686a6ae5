// Package emmreg adapts the abstract EMM-REG SAP onto a logger plus an
// optional recording sink, mirroring how the teacher's RegistrationState
// transitions are only ever observed through logs and metrics, never
// acted on by an external peer.
package emmreg

import (
	"go.uber.org/zap"

	"github.com/your-org/epc-mme/common/metrics"
	"github.com/your-org/epc-mme/nf/mme/internal/sap"
)

// Adapter is the default RegSAP implementation: logs every primitive and
// updates the attach-related Prometheus counters.
type Adapter struct {
	logger *zap.Logger
}

// NewAdapter constructs an emmreg.Adapter.
func NewAdapter(logger *zap.Logger) *Adapter {
	return &Adapter{logger: logger}
}

// Notify implements sap.RegSAP.
func (a *Adapter) Notify(event sap.RegEvent) {
	switch event.Primitive {
	case sap.RegProcAbort:
		a.logger.Info("EMMREG_PROC_ABORT", zap.Uint32("ueid", uint32(event.UEID)))
	case sap.RegAttachCNF:
		a.logger.Info("EMMREG_ATTACH_CNF", zap.Uint32("ueid", uint32(event.UEID)))
		metrics.RecordAttachAttempt("accepted")
	case sap.RegAttachREJ:
		cause := uint8(0)
		if event.Ctx != nil {
			cause = uint8(event.Ctx.EMMCause)
		}
		a.logger.Warn("EMMREG_ATTACH_REJ", zap.Uint32("ueid", uint32(event.UEID)), zap.Uint8("cause", cause))
		metrics.RecordAttachAttempt("rejected")
	case sap.RegCommonProcREQ:
		a.logger.Info("EMMREG_COMMON_PROC_REQ", zap.Uint32("ueid", uint32(event.UEID)))
	case sap.RegProcAbortRelease:
		a.logger.Info("EMMREG_PROC_ABORT (release)", zap.Uint32("ueid", uint32(event.UEID)))
	default:
		a.logger.Warn("unknown EMM-REG primitive", zap.Uint8("primitive", uint8(event.Primitive)))
	}
}

// Recorder is a test double that records every event instead of logging
// it, used by the Attach Coordinator's table-driven tests (the teacher's
// repository_test.go style of asserting directly against a fake).
type Recorder struct {
	Events []sap.RegEvent
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify implements sap.RegSAP.
func (r *Recorder) Notify(event sap.RegEvent) {
	r.Events = append(r.Events, event)
}
