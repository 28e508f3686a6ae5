package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGUTI(mtmsi uint32) GUTI {
	return GUTI{
		GUMMEI: GUMMEI{
			PLMN:       PLMNID{MCC: "208", MNC: "93"},
			MMEGroupID: 1,
			MMECode:    1,
		},
		MTMSI: mtmsi,
	}
}

func TestStoreInsertAndGet(t *testing.T) {
	s := NewStore()
	ctx := NewUEContext(42)
	s.Insert(ctx)

	got, ok := s.Get(42)
	require.True(t, ok)
	assert.Same(t, ctx, got)
}

func TestStoreGetMissing(t *testing.T) {
	s := NewStore()
	_, ok := s.Get(1)
	assert.False(t, ok)
}

func TestStoreSetGUTIAndLookup(t *testing.T) {
	s := NewStore()
	ctx := NewUEContext(42)
	s.Insert(ctx)

	g := testGUTI(100)
	s.SetGUTI(ctx, g)

	got, ok := s.GetByGUTI(g)
	require.True(t, ok)
	assert.Same(t, ctx, got)
}

func TestStoreRekeyMovesPrimaryKeepsSecondary(t *testing.T) {
	s := NewStore()
	ctx := NewUEContext(42)
	s.Insert(ctx)
	g := testGUTI(100)
	s.SetGUTI(ctx, g)

	s.Rekey(ctx, 99)

	_, oldOK := s.Get(42)
	assert.False(t, oldOK, "old ueid must be absent after rekey")

	newCtx, newOK := s.Get(99)
	require.True(t, newOK)
	assert.Same(t, ctx, newCtx)
	assert.Equal(t, UEID(99), ctx.UEID)

	byGUTI, ok := s.GetByGUTI(g)
	require.True(t, ok, "secondary index must remain valid after rekey")
	assert.Same(t, ctx, byGUTI)
}

func TestStoreRemoveClearsBothIndices(t *testing.T) {
	s := NewStore()
	ctx := NewUEContext(42)
	s.Insert(ctx)
	g := testGUTI(100)
	s.SetGUTI(ctx, g)

	s.Remove(42)

	_, primaryOK := s.Get(42)
	assert.False(t, primaryOK)

	_, secondaryOK := s.GetByGUTI(g)
	assert.False(t, secondaryOK)
}

func TestStoreRemoveIdempotent(t *testing.T) {
	s := NewStore()
	assert.NotPanics(t, func() {
		s.Remove(1)
		s.Remove(1)
	})
}

func TestStoreLenAndRegisteredCount(t *testing.T) {
	s := NewStore()
	a := NewUEContext(1)
	b := NewUEContext(2)
	b.IsAttached = true
	s.Insert(a)
	s.Insert(b)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.RegisteredCount())
}

func TestRetransmissionStoreLifecycle(t *testing.T) {
	s := NewRetransmissionStore()
	rec := NewRetransmissionRecord(1, []byte{0xDE, 0xAD})
	s.Put(rec)

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, []byte{0xDE, 0xAD}, got.ESMMsg)

	s.Release(1)
	_, ok = s.Get(1)
	assert.False(t, ok)
}

func TestRetransmissionRecordDeepCopiesESMMsg(t *testing.T) {
	buf := []byte{1, 2, 3}
	rec := NewRetransmissionRecord(1, buf)
	buf[0] = 0xFF

	assert.Equal(t, byte(1), rec.ESMMsg[0], "record must hold its own copy of the ESM buffer")
}

func TestSecurityContextWipe(t *testing.T) {
	sc := &SecurityContext{
		KASME:   []byte{1, 2, 3},
		KNASenc: []byte{4, 5, 6},
		KNASint: []byte{7, 8, 9},
	}
	sc.Wipe()

	assert.Equal(t, []byte{0, 0, 0}, sc.KASME)
	assert.Equal(t, []byte{0, 0, 0}, sc.KNASenc)
	assert.Equal(t, []byte{0, 0, 0}, sc.KNASint)
}
