package attach

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/your-org/epc-mme/common/metrics"
	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/mmeapi"
)

// identify is Phase: Identify (spec.md §4.5). Assumes ctx's mutex is
// already held by the caller.
func (co *Coordinator) identify(sctx context.Context, ctx *emmcontext.UEContext) error {
	sctx, span := co.tracer.Start(sctx, "Coordinator.identify")
	defer span.End()

	ctx.GUTIReallocation = false

	switch {
	case ctx.IMSI != nil:
		return co.identifyIMSIPath(sctx, ctx)
	case ctx.GUTI != nil:
		return co.identifyGUTIPath(sctx, ctx)
	case ctx.IsEmergency && ctx.IMEI != nil:
		return co.identifyIMEIPath(sctx, ctx)
	default:
		ctx.EMMCause = emmcontext.CauseIllegalUE
		return co.reject(sctx, ctx)
	}
}

func (co *Coordinator) identifyIMSIPath(sctx context.Context, ctx *emmcontext.UEContext) error {
	if ctx.Security == nil {
		req := mmeapi.AuthInfoRequest{
			CorrelationID: uuid.New(),
			UEID:          ctx.UEID,
			IMSI:          ctx.IMSI,
			NumVectors:    1,
		}
		return co.mmeAPI.RequestAuthInfo(req)
	}

	vec, err := co.mmeAPI.IdentifyIMSI(sctx, ctx.IMSI)
	if err != nil {
		ctx.EMMCause = emmcontext.CauseIllegalUE
		return co.reject(sctx, ctx)
	}
	ctx.AuthVec = vec
	ctx.GUTIReallocation = true
	return co.afterIdentification(sctx, ctx)
}

// AuthInfoResponse delivers the asynchronous reply to the auth-info
// request issued by identifyIMSIPath, resuming Phase: Identify. This is
// a separate event entry point: it acquires ctx's mutex itself.
func (co *Coordinator) AuthInfoResponse(ueid emmcontext.UEID, vec *emmcontext.AuthVector, respErr error) error {
	sctx, span := co.tracer.Start(context.Background(), "Coordinator.AuthInfoResponse")
	defer span.End()

	ctx, ok := co.store.Get(ueid)
	if !ok {
		co.logger.Warn("auth info response for unknown ueid", zap.Uint32("ueid", uint32(ueid)))
		return nil
	}

	ctx.Lock()
	defer ctx.Unlock()

	if respErr != nil {
		ctx.EMMCause = emmcontext.CauseIllegalUE
		return co.reject(sctx, ctx)
	}

	// guti_reallocation is not raised here: the Context Updater (spec.md
	// §4.4) already synthesized this context's GUTI when it was first
	// created from this very IMSI. guti_reallocation is specific to the
	// "security context already present" branch of identifyIMSIPath above.
	ctx.AuthVec = vec
	return co.afterIdentification(sctx, ctx)
}

// identifyGUTIPath always restarts the common Identification procedure
// regardless of whether identify_guti itself resolved the GUTI to an
// IMSI (spec.md §9, open question 1: "forced-identification
// workaround" preserved exactly as observed).
func (co *Coordinator) identifyGUTIPath(sctx context.Context, ctx *emmcontext.UEContext) error {
	imsi, vec, err := co.mmeAPI.IdentifyGUTI(sctx, *ctx.GUTI)

	var knownIMSI []byte
	if err == nil {
		knownIMSI = imsi
		ctx.AuthVec = vec
	}

	success := func(c *emmcontext.UEContext, resolvedIMSI []byte) error {
		c.IMSI = resolvedIMSI
		return co.afterIdentification(sctx, c)
	}
	failure := func(c *emmcontext.UEContext) error { return co.release(sctx, c) }

	procCtx, procSpan := co.tracer.Start(sctx, "CommonProcedures.Identification")
	defer procSpan.End()
	return co.common.StartIdentification(procCtx, ctx, IdentityIMSI, knownIMSI, success, failure, failure)
}

func (co *Coordinator) identifyIMEIPath(sctx context.Context, ctx *emmcontext.UEContext) error {
	if err := co.mmeAPI.IdentifyIMEI(sctx, ctx.IMEI); err != nil {
		ctx.EMMCause = emmcontext.CauseIMEINotAccepted
		return co.reject(sctx, ctx)
	}
	return co.afterIdentification(sctx, ctx)
}

// afterIdentification applies the guti_reallocation follow-up
// (spec.md §4.5, second paragraph) and then picks the security path.
func (co *Coordinator) afterIdentification(sctx context.Context, ctx *emmcontext.UEContext) error {
	if ctx.GUTIReallocation {
		alloc, err := co.mmeAPI.NewGUTI(sctx, ctx.IMSI)
		if err != nil {
			ctx.EMMCause = emmcontext.CauseIllegalUE
			return co.reject(sctx, ctx)
		}
		ctx.OldGUTI = ctx.GUTI
		co.store.SetGUTI(ctx, alloc.GUTI)
		ctx.TAC = alloc.TAC
		ctx.NTacs = alloc.NTacs
		ctx.GUTIIsNew = true
		ctx.GUTIReallocation = false
		co.mmeAPI.NotifyNewGUTI(ctx.UEID, alloc.GUTI)
		metrics.RecordGUTIReallocation()
	}

	return co.selectSecurityPath(sctx, ctx)
}

func (co *Coordinator) selectSecurityPath(sctx context.Context, ctx *emmcontext.UEContext) error {
	switch {
	case ctx.Security != nil:
		return co.attach(sctx, ctx)
	case ctx.IsEmergency && co.cfg.UnauthenticatedIMSI:
		return co.attachSecurity(sctx, ctx)
	default:
		success := func(c *emmcontext.UEContext) error { return co.attachSecurity(sctx, c) }
		failure := func(c *emmcontext.UEContext) error { return co.release(sctx, c) }
		procCtx, procSpan := co.tracer.Start(sctx, "CommonProcedures.Authentication")
		defer procSpan.End()
		return co.common.StartAuthentication(procCtx, ctx, ctx.AuthVec, success, failure, failure)
	}
}
