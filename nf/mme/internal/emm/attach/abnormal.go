package attach

import (
	"context"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
	"github.com/your-org/epc-mme/nf/mme/internal/sap"

	"github.com/your-org/epc-mme/common/metrics"
)

// reject is the Abnormal: Reject path (spec.md §4.10). Assumes ctx's
// mutex is already held by the caller (or ctx is a transient,
// exclusively-owned context built by AttachReject).
func (co *Coordinator) reject(sctx context.Context, ctx *emmcontext.UEContext) error {
	sctx, span := co.tracer.Start(sctx, "Coordinator.reject")
	defer span.End()

	if ctx.EMMCause == emmcontext.CauseSuccess {
		ctx.EMMCause = emmcontext.CauseIllegalUE
	}

	var nasMsg []byte
	if ctx.EMMCause == emmcontext.CauseESMFailure {
		nasMsg = ctx.ESMMsg
	}

	msg := sap.EstablishREJ{
		UEID:     ctx.UEID,
		EMMCause: ctx.EMMCause,
		NASInfo:  "ATTACH",
		NASMsg:   nasMsg,
		Sctx:     securityDescriptor(ctx),
	}

	err := co.as.EstablishREJ(msg)
	metrics.RecordAttachReject(causeLabel(ctx.EMMCause))
	co.reg.Notify(sap.RegEvent{Primitive: sap.RegAttachREJ, UEID: ctx.UEID, Ctx: ctx})

	if ctx.IsDynamic {
		co.release(sctx, ctx)
	}
	return err
}

// abort is the Abnormal: Abort path (spec.md §4.10). Assumes ctx's
// mutex is already held by the caller.
func (co *Coordinator) abort(sctx context.Context, ctx *emmcontext.UEContext) error {
	sctx, span := co.tracer.Start(sctx, "Coordinator.abort")
	defer span.End()

	co.stopT3450(ctx)
	co.retrans.Release(ctx.UEID)

	_ = co.esm.PDNConnectivityREJ(ctx.UEID, ctx.EMMCause)
	co.reg.Notify(sap.RegEvent{Primitive: sap.RegAttachREJ, UEID: ctx.UEID, Ctx: ctx})
	metrics.RecordAttachAbort()

	return co.release(sctx, ctx)
}

// release is the Abnormal: Release path (spec.md §4.10). Assumes ctx's
// mutex is already held by the caller.
func (co *Coordinator) release(sctx context.Context, ctx *emmcontext.UEContext) error {
	_, span := co.tracer.Start(sctx, "Coordinator.release")
	defer span.End()

	if ctx.Security != nil {
		ctx.Security.Wipe()
		ctx.Security = nil
	}
	// Drop the store entries while ctx.GUTI/OldGUTI still name the
	// secondary-index keys to delete.
	if ctx.OldGUTI != nil {
		co.store.ClearGUTISecondary(*ctx.OldGUTI)
	}
	co.store.Remove(ctx.UEID)
	ctx.GUTI = nil
	ctx.OldGUTI = nil
	ctx.GUTIIsNew = false
	ctx.IMSI = nil
	ctx.IMEI = nil
	ctx.ESMMsg = nil
	ctx.AuthVec = nil

	co.stopT3450(ctx)
	ctx.T3460 = emmcontext.TimerInactive
	ctx.T3470 = emmcontext.TimerInactive

	co.reg.Notify(sap.RegEvent{Primitive: sap.RegProcAbortRelease, UEID: ctx.UEID, Ctx: ctx})

	return nil
}

func causeLabel(cause emmcontext.CauseCode) string {
	switch cause {
	case emmcontext.CauseSuccess:
		return "success"
	case emmcontext.CauseIllegalUE:
		return "illegal_ue"
	case emmcontext.CauseIMEINotAccepted:
		return "imei_not_accepted"
	case emmcontext.CauseESMFailure:
		return "esm_failure"
	case emmcontext.CauseProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}
