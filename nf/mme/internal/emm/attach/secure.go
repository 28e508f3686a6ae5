package attach

import (
	"context"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// EEA0/EIA0 are the null EPS encryption/integrity algorithm codes,
// installed when a UE attaches without having gone through the
// Authentication procedure (spec.md §4.6).
const (
	EEA0 uint8 = 0
	EIA0 uint8 = 0
)

// attachSecurity is Phase: Authenticate & Secure (spec.md §4.6). Assumes
// ctx's mutex is already held by the caller.
func (co *Coordinator) attachSecurity(sctx context.Context, ctx *emmcontext.UEContext) error {
	sctx, span := co.tracer.Start(sctx, "Coordinator.attachSecurity")
	defer span.End()

	if ctx.Security == nil {
		ctx.Security = &emmcontext.SecurityContext{
			KSIType:           emmcontext.KSINotAvailable,
			SelectedCiphering: EEA0,
			SelectedIntegrity: EIA0,
		}
	}

	success := func(c *emmcontext.UEContext) error { return co.attach(sctx, c) }
	failure := func(c *emmcontext.UEContext) error { return co.release(sctx, c) }

	procCtx, procSpan := co.tracer.Start(sctx, "CommonProcedures.SecurityModeControl")
	defer procSpan.End()
	return co.common.StartSecurityModeControl(procCtx, ctx, success, failure, failure)
}
