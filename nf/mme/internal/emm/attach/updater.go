package attach

import (
	"context"
	"errors"

	"github.com/your-org/epc-mme/common/metrics"
	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// errNoIdentity is returned by updateContext when neither a GUTI nor an
// IMSI is available to derive one from (spec.md §4.4, final sentence).
var errNoIdentity = errors.New("attach: context update requires a guti or an imsi")

// updateContext is the Context Updater (spec.md §4.4). Assumes ctx's
// mutex is already held by the caller (the Attach Coordinator holds it
// for the whole run of the triggering event, spec.md §5).
func (co *Coordinator) updateContext(ctx *emmcontext.UEContext, req Request) error {
	ctx.AttachType = req.Type
	ctx.IsEmergency = req.Type == emmcontext.AttachTypeEmergency
	ctx.KSI = req.KSI
	ctx.EEA = req.EEA
	ctx.EIA = req.EIA
	ctx.UCS2 = req.UCS2
	ctx.UEA = req.UEA
	ctx.UIA = req.UIA
	ctx.GEA = req.GEA
	ctx.UMTSPresent = req.UMTSPresent
	ctx.GPRSPresent = req.GPRSPresent
	ctx.LastReqGUTI = req.GUTI

	switch {
	case req.GUTI != nil:
		co.store.SetGUTI(ctx, *req.GUTI)
	case req.IMSI != nil:
		alloc, err := co.mmeAPI.NewGUTI(context.Background(), req.IMSI)
		if err != nil {
			return err
		}
		if ctx.GUTI != nil {
			ctx.OldGUTI = ctx.GUTI
		}
		co.store.SetGUTI(ctx, alloc.GUTI)
		ctx.TAC = alloc.TAC
		ctx.NTacs = alloc.NTacs
		ctx.GUTIIsNew = true
		co.mmeAPI.NotifyNewGUTI(ctx.UEID, alloc.GUTI)
		metrics.RecordGUTIReallocation()
	default:
		return errNoIdentity
	}

	if req.IMSI != nil {
		ctx.IMSI = cloneBytes(req.IMSI)
	}
	if req.IMEI != nil {
		ctx.IMEI = cloneBytes(req.IMEI)
	}

	ctx.ESMMsg = cloneBytes(req.ESMMsg)
	ctx.IsAttached = false

	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
