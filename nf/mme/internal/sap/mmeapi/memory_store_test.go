package mmeapi

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() MemoryStoreConfig {
	return MemoryStoreConfig{
		HomeMCC:    "208",
		HomeMNC:    "93",
		MMEGroupID: 1,
		MMECode:    1,
		TAC:        1,
	}
}

func testSubscriber() *SubscriberRecord {
	return &SubscriberRecord{
		IMSI: []byte("208930000000001"),
		K:    make([]byte, 16),
		OPc:  make([]byte, 16),
		SQN:  []byte{0, 0, 0, 0, 0, 1},
		AMF:  []byte{0x80, 0x00},
	}
}

func TestMemoryStoreIdentifyIMSI(t *testing.T) {
	store := NewMemoryStore(testConfig(), zap.NewNop())
	store.AddSubscriber(testSubscriber())

	vec, err := store.IdentifyIMSI(context.Background(), []byte("208930000000001"))
	require.NoError(t, err)
	assert.Len(t, vec.RAND, 16)
	assert.Len(t, vec.AUTN, 16)
	assert.Len(t, vec.KASME, 32)
}

func TestMemoryStoreIdentifyIMSIUnknown(t *testing.T) {
	store := NewMemoryStore(testConfig(), zap.NewNop())
	_, err := store.IdentifyIMSI(context.Background(), []byte("000000000000000"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreNewGUTIAndIdentifyGUTIRoundTrip(t *testing.T) {
	store := NewMemoryStore(testConfig(), zap.NewNop())
	store.AddSubscriber(testSubscriber())

	alloc, err := store.NewGUTI(context.Background(), []byte("208930000000001"))
	require.NoError(t, err)
	assert.Equal(t, "208", alloc.GUTI.GUMMEI.PLMN.MCC)
	assert.Equal(t, "93", alloc.GUTI.GUMMEI.PLMN.MNC)

	imsi, vec, err := store.IdentifyGUTI(context.Background(), alloc.GUTI)
	require.NoError(t, err)
	assert.Equal(t, []byte("208930000000001"), imsi)
	assert.NotNil(t, vec)
}

func TestMemoryStoreIdentifyIMEI(t *testing.T) {
	store := NewMemoryStore(testConfig(), zap.NewNop())
	store.AddKnownIMEI([]byte("123456789012345"))

	assert.NoError(t, store.IdentifyIMEI(context.Background(), []byte("123456789012345")))
	assert.ErrorIs(t, store.IdentifyIMEI(context.Background(), []byte("000000000000000")), ErrNotFound)
}

func TestMemoryStoreRequestAndResolveAuthInfo(t *testing.T) {
	store := NewMemoryStore(testConfig(), zap.NewNop())
	store.AddSubscriber(testSubscriber())

	req := AuthInfoRequest{UEID: 1, IMSI: []byte("208930000000001"), NumVectors: 1}
	req.CorrelationID = uuid.New()
	require.NoError(t, store.RequestAuthInfo(req))

	resp, ok := store.ResolvePending(req.CorrelationID)
	require.True(t, ok)
	require.NoError(t, resp.Err)
	assert.NotNil(t, resp.Vector)
}
