package attach

import (
	"context"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
	"github.com/your-org/epc-mme/nf/mme/internal/sap"
)

// attach is Phase: Attach (spec.md §4.7). Assumes ctx's mutex is already
// held by the caller. Entry invariant: either ctx.Security is installed,
// or the UE is an unauthenticated emergency attach.
func (co *Coordinator) attach(sctx context.Context, ctx *emmcontext.UEContext) error {
	sctx, span := co.tracer.Start(sctx, "Coordinator.attach")
	defer span.End()

	resp, err := co.esm.PDNConnectivityREQ(sap.PDNConnectivityRequest{
		UEID:         ctx.UEID,
		Ctx:          ctx,
		Recv:         ctx.ESMMsg,
		IsStandalone: false,
	})
	if err != nil {
		return err
	}

	switch resp.Err {
	case sap.ESMSuccess:
		rec := emmcontext.NewRetransmissionRecord(ctx.UEID, resp.Send)
		co.retrans.Put(rec)

		if err := co.attachAccept(sctx, ctx, rec); err != nil {
			return err
		}

		// Open question (spec.md §9, item 3): the ORIGINAL_CODE build path is
		// treated as the specified default — Attach Accept above is always
		// sent on ESM success, and COMMON_PROC_REQ is additionally emitted
		// here when this Attach performed an implicit GUTI reallocation.
		if ctx.GUTIIsNew && ctx.OldGUTI != nil {
			co.reg.Notify(sap.RegEvent{Primitive: sap.RegCommonProcREQ, UEID: ctx.UEID, Ctx: ctx})
		}
		return nil

	case sap.ESMDiscarded:
		return nil

	default:
		ctx.EMMCause = emmcontext.CauseESMFailure
		ctx.ESMMsg = resp.Send
		return co.reject(sctx, ctx)
	}
}

// attachAccept is Phase: Attach Accept (spec.md §4.8). Assumes ctx's
// mutex is already held by the caller.
func (co *Coordinator) attachAccept(sctx context.Context, ctx *emmcontext.UEContext, rec *emmcontext.RetransmissionRecord) error {
	sctx, span := co.tracer.Start(sctx, "Coordinator.attachAccept")
	defer span.End()

	var ueGUTI emmcontext.GUTI
	switch {
	case ctx.GUTIIsNew && ctx.OldGUTI != nil:
		ueGUTI = *ctx.OldGUTI
	case ctx.GUTI != nil:
		ueGUTI = *ctx.GUTI
	}

	var newGUTI *emmcontext.GUTI
	if ctx.GUTIIsNew && ctx.GUTI != nil {
		newGUTI = ctx.GUTI
	}

	msg := sap.EstablishCNF{
		UEID:    ctx.UEID,
		GUTI:    ueGUTI,
		NewGUTI: newGUTI,
		NTacs:   ctx.NTacs,
		TAC:     ctx.TAC,
		NASInfo: "ATTACH",
		NASMsg:  rec.ESMMsg,
		Sctx:    securityDescriptor(ctx),
	}

	if err := co.as.EstablishCNF(msg); err != nil {
		return err
	}

	co.armT3450(ctx, rec)
	return nil
}

func securityDescriptor(ctx *emmcontext.UEContext) sap.SecurityContextDescriptor {
	if ctx.Security == nil {
		return sap.SecurityContextDescriptor{}
	}
	return sap.SecurityContextDescriptor{
		Encryption:      ctx.Security.SelectedCiphering,
		Integrity:       ctx.Security.SelectedIntegrity,
		UseNewContextUL: true,
		UseNewContextDL: true,
	}
}
