package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

func baseContext() *emmcontext.UEContext {
	ctx := emmcontext.NewUEContext(1)
	ctx.EEA = 0xF0
	ctx.EIA = 0xF0
	ctx.KSI = 7
	return ctx
}

func baseRequest() Request {
	return Request{
		KSI: 7,
		EEA: 0xF0,
		EIA: 0xF0,
	}
}

func TestParametersHaveChangedIdenticalIsFalse(t *testing.T) {
	ctx := baseContext()
	req := baseRequest()
	assert.False(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedEmergencyFlag(t *testing.T) {
	ctx := baseContext()
	req := baseRequest()
	req.IsEmergency = true
	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedKSI(t *testing.T) {
	ctx := baseContext()
	req := baseRequest()
	req.KSI = 3
	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedEEA(t *testing.T) {
	ctx := baseContext()
	req := baseRequest()
	req.EEA = 0x00
	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedUMTSFieldsOnlyWhenBothPresent(t *testing.T) {
	ctx := baseContext()
	ctx.UMTSPresent = false
	req := baseRequest()
	req.UMTSPresent = false
	req.UCS2 = true // differs, but umts_present is false on both sides
	req.UEA = 0xFF

	assert.False(t, ParametersHaveChanged(ctx, req), "UCS2/UEA/UIA must not be compared unless both sides have UMTS capabilities")
}

func TestParametersHaveChangedUMTSPresenceAsymmetry(t *testing.T) {
	ctx := baseContext()
	ctx.UMTSPresent = false
	req := baseRequest()
	req.UMTSPresent = true

	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedUEAWhenBothUMTS(t *testing.T) {
	ctx := baseContext()
	ctx.UMTSPresent = true
	ctx.UEA = 0x01
	req := baseRequest()
	req.UMTSPresent = true
	req.UEA = 0x02

	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedGPRSGEAOnlyWhenBothPresent(t *testing.T) {
	ctx := baseContext()
	ctx.GPRSPresent = false
	req := baseRequest()
	req.GPRSPresent = false
	req.GEA = 0xFF

	assert.False(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedGUTINilAsymmetry(t *testing.T) {
	ctx := baseContext()
	req := baseRequest()
	req.GUTI = &emmcontext.GUTI{MTMSI: 1}

	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedGUTISameValueIsFalse(t *testing.T) {
	g := emmcontext.GUTI{
		GUMMEI: emmcontext.GUMMEI{PLMN: emmcontext.PLMNID{MCC: "208", MNC: "93"}, MMEGroupID: 1, MMECode: 1},
		MTMSI:  42,
	}
	ctx := baseContext()
	ctx.LastReqGUTI = &g
	req := baseRequest()
	gCopy := g
	req.GUTI = &gCopy

	assert.False(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedGUTIDifferentMTMSI(t *testing.T) {
	g := emmcontext.GUTI{MTMSI: 42}
	ctx := baseContext()
	ctx.LastReqGUTI = &g
	req := baseRequest()
	g2 := emmcontext.GUTI{MTMSI: 43}
	req.GUTI = &g2

	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedIMSINilAsymmetry(t *testing.T) {
	ctx := baseContext()
	req := baseRequest()
	req.IMSI = []byte("208930000000001")

	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedIMSIByteEqual(t *testing.T) {
	ctx := baseContext()
	ctx.IMSI = []byte("208930000000001")
	req := baseRequest()
	req.IMSI = []byte("208930000000001")

	assert.False(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedIMSIByteDiffer(t *testing.T) {
	ctx := baseContext()
	ctx.IMSI = []byte("208930000000001")
	req := baseRequest()
	req.IMSI = []byte("208930000000002")

	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedIMEI(t *testing.T) {
	ctx := baseContext()
	ctx.IMEI = []byte("123456789012345")
	req := baseRequest()
	req.IMEI = []byte("123456789012346")

	assert.True(t, ParametersHaveChanged(ctx, req))
}

func TestParametersHaveChangedTAIAndESMIgnored(t *testing.T) {
	// Request has no TAI/ESM fields at all — the diff type omits them
	// entirely, which is itself the assertion that they are never
	// compared.
	ctx := baseContext()
	req := baseRequest()
	assert.False(t, ParametersHaveChanged(ctx, req))
}
