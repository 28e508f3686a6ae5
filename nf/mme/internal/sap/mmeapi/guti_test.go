package mmeapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizeGUTIMNCLength2(t *testing.T) {
	guti, err := SynthesizeGUTI([]byte("208930000000001"), 1, 1, 2, 42)
	require.NoError(t, err)
	assert.Equal(t, "208", guti.GUMMEI.PLMN.MCC)
	assert.Equal(t, "93", guti.GUMMEI.PLMN.MNC)
	assert.Equal(t, uint32(42), guti.MTMSI)
}

func TestSynthesizeGUTIMNCLength3(t *testing.T) {
	// imsi digits: d1..d6 = 2,0,8,9,3,4; MNC digits per spec.md §4.4 are
	// sourced from imsi digit5, digit6, digit4 = 3,4,9 -> "349"
	guti, err := SynthesizeGUTI([]byte("208934000000001"), 1, 1, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, "208", guti.GUMMEI.PLMN.MCC)
	assert.Equal(t, "349", guti.GUMMEI.PLMN.MNC)
}

func TestSynthesizeGUTIInvalidMNCLength(t *testing.T) {
	_, err := SynthesizeGUTI([]byte("208930000000001"), 1, 1, 4, 1)
	assert.Error(t, err)
}

func TestSynthesizeGUTITooShortIMSI(t *testing.T) {
	_, err := SynthesizeGUTI([]byte("2089"), 1, 1, 2, 1)
	assert.Error(t, err)
}

func TestFindMNCLengthMatchesHome2Digit(t *testing.T) {
	n, err := FindMNCLength([]byte("208930000000001"), "208", "93")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFindMNCLengthMatchesHome3Digit(t *testing.T) {
	n, err := FindMNCLength([]byte("208349000000001"), "208", "349")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFindMNCLengthForeignPLMNDefaults2(t *testing.T) {
	n, err := FindMNCLength([]byte("999990000000001"), "208", "93")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
