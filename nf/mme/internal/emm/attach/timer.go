package attach

import (
	"context"
	"fmt"
	"time"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"

	"github.com/your-org/epc-mme/common/metrics"
)

// armT3450 arms T3450, restarting it if already armed (spec.md §4.8,
// §4.9). Assumes ctx's mutex is already held by the caller.
func (co *Coordinator) armT3450(ctx *emmcontext.UEContext, rec *emmcontext.RetransmissionRecord) {
	co.timersMu.Lock()
	if t, ok := co.timers[ctx.UEID]; ok {
		t.Stop()
	}
	d := time.Duration(co.cfg.T3450Seconds) * time.Second
	ueid := ctx.UEID
	co.timers[ueid] = time.AfterFunc(d, func() { co.onT3450Expiry(ueid) })
	co.timersMu.Unlock()

	ctx.T3450 = emmcontext.TimerID(fmt.Sprintf("t3450-%d", ueid))
}

// stopT3450 disarms T3450 for ctx. Assumes ctx's mutex is already held
// by the caller.
func (co *Coordinator) stopT3450(ctx *emmcontext.UEContext) {
	co.timersMu.Lock()
	if t, ok := co.timers[ctx.UEID]; ok {
		t.Stop()
		delete(co.timers, ctx.UEID)
	}
	co.timersMu.Unlock()

	ctx.T3450 = emmcontext.TimerInactive
}

// onT3450Expiry is the T3450 expiry handler (spec.md §4.9), a separate
// event entry point: it acquires ctx's mutex itself.
func (co *Coordinator) onT3450Expiry(ueid emmcontext.UEID) {
	sctx, span := co.tracer.Start(context.Background(), "Coordinator.onT3450Expiry")
	defer span.End()

	ctx, ok := co.store.Get(ueid)
	if !ok {
		return
	}

	ctx.Lock()
	defer ctx.Unlock()

	rec, ok := co.retrans.Get(ueid)
	if !ok {
		return
	}

	rec.RetransmissionCount++

	if rec.RetransmissionCount < co.cfg.AttachCounterMax {
		metrics.RecordT3450Retransmission()
		_ = co.attachAccept(sctx, ctx, rec)
		return
	}

	metrics.RecordT3450Exhausted()
	_ = co.abort(sctx, ctx)
}
