package attach

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
	"github.com/your-org/epc-mme/nf/mme/internal/sap"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/emmas"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/emmreg"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/esm"
	"github.com/your-org/epc-mme/nf/mme/internal/sap/mmeapi"
)

const testIMSI = "208930000000001"

type testRig struct {
	co    *Coordinator
	store *emmcontext.Store
	mem   *mmeapi.MemoryStore
	reg   *emmreg.Recorder
	as    *emmas.Recorder
}

func newTestRig(t *testing.T, cfg Config) *testRig {
	t.Helper()

	logger := zap.NewNop()
	store := emmcontext.NewStore()
	retrans := emmcontext.NewRetransmissionStore()

	mem := mmeapi.NewMemoryStore(mmeapi.MemoryStoreConfig{
		HomeMCC:    "208",
		HomeMNC:    "93",
		MMEGroupID: 1,
		MMECode:    1,
		TAC:        1,
	}, logger)
	mem.AddSubscriber(&mmeapi.SubscriberRecord{
		IMSI: []byte(testIMSI),
		K:    make([]byte, 16),
		OPc:  make([]byte, 16),
		SQN:  []byte{0, 0, 0, 0, 0, 1},
		AMF:  []byte{0x80, 0x00},
	})

	reg := emmreg.NewRecorder()
	as := emmas.NewRecorder()
	pdn, err := esm.NewPDNAdapter("10.45.0.0/16", logger)
	require.NoError(t, err)

	co := NewCoordinator(cfg, store, retrans, mem, nil, reg, as, pdn, logger)

	return &testRig{co: co, store: store, mem: mem, reg: reg, as: as}
}

func defaultConfig() Config {
	return Config{T3450Seconds: 6, AttachCounterMax: 5}
}

func baseIMSIRequest(ueid emmcontext.UEID) Request {
	return Request{
		UEID:          ueid,
		Type:          emmcontext.AttachTypeEPS,
		KSI:           7,
		EEA:           0xF0,
		EIA:           0xF0,
		IMSI:          []byte(testIMSI),
		ESMMsg:        []byte{0xDE, 0xAD},
		DecodeSuccess: true,
	}
}

// runIMSIAttachToAccept drives a fresh IMSI attach through the out-of-band
// auth-info round trip up to EMMAS_ESTABLISH_CNF.
func runIMSIAttachToAccept(t *testing.T, rig *testRig, req Request) {
	t.Helper()
	require.NoError(t, rig.co.AttachRequest(req))

	responses := rig.mem.ResolveAllPending()
	require.Len(t, responses, 1)
	require.NoError(t, rig.co.AuthInfoResponse(responses[0].UEID, responses[0].Vector, responses[0].Err))
}

// Scenario 1: happy path, IMSI, no prior context.
func TestScenarioHappyPathIMSI(t *testing.T) {
	rig := newTestRig(t, defaultConfig())
	req := baseIMSIRequest(1)

	runIMSIAttachToAccept(t, rig, req)

	require.Len(t, rig.as.Accepts, 1)
	cnf := rig.as.Accepts[0]
	assert.Equal(t, "208", cnf.NewGUTI.GUMMEI.PLMN.MCC)
	assert.Equal(t, "93", cnf.NewGUTI.GUMMEI.PLMN.MNC)
	assert.NotZero(t, cnf.NewGUTI.MTMSI)

	ctx, ok := rig.store.Get(1)
	require.True(t, ok)
	assert.NotEqual(t, emmcontext.TimerInactive, ctx.T3450)

	require.NoError(t, rig.co.AttachComplete(1, []byte{0x01}))
	ctx, ok = rig.store.Get(1)
	require.True(t, ok)
	assert.True(t, ctx.IsAttached)

	var sawAttachCNF bool
	for _, ev := range rig.reg.Events {
		if ev.Primitive == sap.RegAttachCNF {
			sawAttachCNF = true
		}
	}
	assert.True(t, sawAttachCNF)
}

// Scenario 2: duplicate Attach Request arrives before the first resolves.
func TestScenarioDuplicateAttachRequest(t *testing.T) {
	rig := newTestRig(t, defaultConfig())
	req := baseIMSIRequest(2)

	require.NoError(t, rig.co.AttachRequest(req))
	require.NoError(t, rig.co.AttachRequest(req))

	// Only one auth-info request should be pending; a second GUTI
	// allocation would also have advanced the m-TMSI counter and produced
	// two pending correlation ids.
	responses := rig.mem.ResolveAllPending()
	require.Len(t, responses, 1)
}

// Scenario 3: parameter change mid-procedure.
func TestScenarioParameterChangeRestarts(t *testing.T) {
	rig := newTestRig(t, defaultConfig())
	req := baseIMSIRequest(3)

	require.NoError(t, rig.co.AttachRequest(req))
	ctx, ok := rig.store.Get(3)
	require.True(t, ok)
	firstGUTI := *ctx.GUTI

	changed := req
	changed.EEA = 0x00
	require.NoError(t, rig.co.AttachRequest(changed))

	var sawProcAbort bool
	for _, ev := range rig.reg.Events {
		if ev.Primitive == sap.RegProcAbort {
			sawProcAbort = true
		}
	}
	assert.True(t, sawProcAbort)

	ctx, ok = rig.store.Get(3)
	require.True(t, ok)
	assert.NotEqual(t, firstGUTI, *ctx.GUTI)
}

// Scenario 4: T3450 exhaustion.
func TestScenarioT3450Exhaustion(t *testing.T) {
	rig := newTestRig(t, defaultConfig())
	req := baseIMSIRequest(4)

	runIMSIAttachToAccept(t, rig, req)
	require.Len(t, rig.as.Accepts, 1)
	firstNASMsg := rig.as.Accepts[0].NASMsg

	for i := 0; i < 4; i++ {
		rig.co.onT3450Expiry(4)
	}
	require.Len(t, rig.as.Accepts, 5)
	for _, cnf := range rig.as.Accepts {
		assert.Equal(t, firstNASMsg, cnf.NASMsg)
	}

	rig.co.onT3450Expiry(4)

	_, ok := rig.store.Get(4)
	assert.False(t, ok)

	var sawAttachREJ bool
	for _, ev := range rig.reg.Events {
		if ev.Primitive == sap.RegAttachREJ {
			sawAttachREJ = true
		}
	}
	assert.True(t, sawAttachREJ)
}

// Scenario 5: emergency attach disabled.
func TestScenarioEmergencyAttachDisabled(t *testing.T) {
	rig := newTestRig(t, defaultConfig())
	req := Request{
		UEID:          5,
		Type:          emmcontext.AttachTypeEmergency,
		IMEI:          []byte("123456789012345"),
		ESMMsg:        []byte{0x00},
		DecodeSuccess: true,
	}

	require.NoError(t, rig.co.AttachRequest(req))

	require.Len(t, rig.as.Rejects, 1)
	assert.Equal(t, emmcontext.CauseIMEINotAccepted, rig.as.Rejects[0].EMMCause)

	_, ok := rig.store.Get(5)
	assert.False(t, ok)
}

// Scenario 6: UE id change via known GUTI (rekey).
func TestScenarioRekeyOnKnownGUTI(t *testing.T) {
	rig := newTestRig(t, defaultConfig())

	existing := emmcontext.NewUEContext(42)
	existing.IMSI = []byte(testIMSI)
	existing.FSMStatus = emmcontext.EMMFSMCommonProcedureInit
	rig.store.Insert(existing)

	guti := emmcontext.GUTI{
		GUMMEI: emmcontext.GUMMEI{
			PLMN:       emmcontext.PLMNID{MCC: "208", MNC: "93"},
			MMEGroupID: 1,
			MMECode:    1,
		},
		MTMSI: 7,
	}
	rig.store.SetGUTI(existing, guti)

	req := Request{
		UEID:          99,
		Type:          emmcontext.AttachTypeEPS,
		GUTI:          &guti,
		KSI:           7,
		EEA:           0xF0,
		EIA:           0xF0,
		ESMMsg:        []byte{0xDE, 0xAD},
		DecodeSuccess: true,
	}

	require.NoError(t, rig.co.AttachRequest(req))

	_, stillAt42 := rig.store.Get(42)
	assert.False(t, stillAt42)

	moved, ok := rig.store.Get(99)
	require.True(t, ok)
	assert.Equal(t, emmcontext.UEID(99), moved.UEID)

	byGUTI, ok := rig.store.GetByGUTI(guti)
	require.True(t, ok)
	assert.Equal(t, emmcontext.UEID(99), byGUTI.UEID)
}
