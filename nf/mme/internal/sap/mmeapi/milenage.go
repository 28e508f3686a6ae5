package mmeapi

import (
	"crypto/aes"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	emmcontext "github.com/your-org/epc-mme/nf/mme/internal/emm/context"
)

// MILENAGE (3GPP TS 35.205-208), adapted from the UDM's 5G-AKA
// implementation (nf/udm/internal/crypto/milenage.go) for EPS-AKA: the
// MME-facing interface produces RAND/AUTN/XRES/KASME rather than
// RAND/AUTN/XRES/CK/IK/AK, since S6a Authentication-Information-Answers
// carry EPS vectors with KASME already derived, not the raw CK/IK pair.
//
// The KASME derivation itself (TS 33.401 Annex A.2, HMAC-SHA-256 over
// CK||IK) uses crypto/hmac + crypto/sha256 from the standard library:
// nothing in this pack supplies a 3GPP KDF, and MILENAGE's own AES-based
// f1..f5 functions are not substitutable for it.

// ComputeOPc computes OPc from K and OP: OPc = E[K](OP) XOR OP.
func ComputeOPc(k, op []byte) ([]byte, error) {
	if len(k) != 16 {
		return nil, fmt.Errorf("K must be 128 bits (16 bytes), got %d bytes", len(k))
	}
	if len(op) != 16 {
		return nil, fmt.Errorf("OP must be 128 bits (16 bytes), got %d bytes", len(op))
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	opc := make([]byte, 16)
	block.Encrypt(opc, op)

	for i := 0; i < 16; i++ {
		opc[i] ^= op[i]
	}

	return opc, nil
}

// f1 computes MAC-A (network authentication function): MAC = f1(K, RAND, SQN, AMF).
func f1(k, opc, rand, sqn, amf []byte) ([]byte, error) {
	temp := make([]byte, 16)

	for i := 0; i < 6; i++ {
		temp[i] = sqn[i]
	}
	for i := 0; i < 2; i++ {
		temp[i+6] = amf[i]
	}
	for i := 0; i < 6; i++ {
		temp[i+8] = sqn[i]
	}
	for i := 0; i < 2; i++ {
		temp[i+14] = amf[i]
	}

	for i := 0; i < 16; i++ {
		temp[i] ^= opc[i]
	}

	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	in := make([]byte, 16)
	for i := 0; i < 16; i++ {
		in[i] = rand[i] ^ opc[i]
	}

	block.Encrypt(temp, in)

	for i := 0; i < 16; i++ {
		temp[i] ^= opc[i]
	}

	mac := make([]byte, 8)
	copy(mac, temp[:8])

	return mac, nil
}

// f2345 computes RES, CK, IK, and AK.
func f2345(k, opc, rand []byte) (res, ck, ik, ak []byte, err error) {
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	temp := make([]byte, 16)
	for i := 0; i < 16; i++ {
		temp[i] = rand[i] ^ opc[i]
	}

	out := make([]byte, 16)
	block.Encrypt(out, temp)

	res = make([]byte, 8)
	for i := 0; i < 16; i++ {
		out[i] ^= opc[i]
	}
	copy(res, out[:8])

	ck = make([]byte, 16)
	temp2 := make([]byte, 16)
	for i := 0; i < 16; i++ {
		temp2[i] = rand[i] ^ opc[i]
	}
	temp2[15] ^= 1
	block.Encrypt(ck, temp2)
	for i := 0; i < 16; i++ {
		ck[i] ^= opc[i]
	}

	ik = make([]byte, 16)
	temp3 := make([]byte, 16)
	for i := 0; i < 16; i++ {
		temp3[i] = rand[i] ^ opc[i]
	}
	temp3[15] ^= 2
	block.Encrypt(ik, temp3)
	for i := 0; i < 16; i++ {
		ik[i] ^= opc[i]
	}

	ak = make([]byte, 6)
	temp4 := make([]byte, 16)
	for i := 0; i < 16; i++ {
		temp4[i] = rand[i] ^ opc[i]
	}
	temp4[15] ^= 4
	akOut := make([]byte, 16)
	block.Encrypt(akOut, temp4)
	for i := 0; i < 16; i++ {
		akOut[i] ^= opc[i]
	}
	copy(ak, akOut[:6])

	return res, ck, ik, ak, nil
}

// deriveKASME implements TS 33.401 Annex A.2: KASME = KDF(CK||IK, S)
// with S = FC || SN id || length(SN id) || (SQN xor AK) || length(SQN xor AK),
// FC = 0x10, using HMAC-SHA-256 as the KDF per TS 33.220 Annex B.
func deriveKASME(ck, ik, sqn, ak []byte, snID []byte) []byte {
	sqnXorAK := make([]byte, 6)
	for i := 0; i < 6; i++ {
		sqnXorAK[i] = sqn[i] ^ ak[i]
	}

	s := make([]byte, 0, 1+len(snID)+2+6+2)
	s = append(s, 0x10)
	s = append(s, snID...)
	s = append(s, byte(len(snID)>>8), byte(len(snID)))
	s = append(s, sqnXorAK...)
	s = append(s, 0x00, 0x06)

	key := make([]byte, 0, len(ck)+len(ik))
	key = append(key, ck...)
	key = append(key, ik...)

	mac := hmac.New(sha256.New, key)
	mac.Write(s)
	return mac.Sum(nil)
}

// GenerateAuthVector generates an EPS authentication vector: RAND/AUTN
// for the Authentication common procedure, XRES staged for comparison,
// and KASME installed into the security context once authentication
// succeeds.
func GenerateAuthVector(k, opc, rand, sqn, amf, snID []byte) (*emmcontext.AuthVector, error) {
	if len(k) != 16 {
		return nil, fmt.Errorf("K must be 16 bytes, got %d", len(k))
	}
	if len(opc) != 16 {
		return nil, fmt.Errorf("OPc must be 16 bytes, got %d", len(opc))
	}
	if len(rand) != 16 {
		return nil, fmt.Errorf("RAND must be 16 bytes, got %d", len(rand))
	}
	if len(sqn) != 6 {
		return nil, fmt.Errorf("SQN must be 6 bytes, got %d", len(sqn))
	}
	if len(amf) != 2 {
		return nil, fmt.Errorf("AMF must be 2 bytes, got %d", len(amf))
	}

	mac, err := f1(k, opc, rand, sqn, amf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute MAC: %w", err)
	}

	res, ck, ik, ak, err := f2345(k, opc, rand)
	if err != nil {
		return nil, fmt.Errorf("failed to compute RES/CK/IK/AK: %w", err)
	}

	autn := make([]byte, 16)
	for i := 0; i < 6; i++ {
		autn[i] = sqn[i] ^ ak[i]
	}
	copy(autn[6:8], amf)
	copy(autn[8:16], mac)

	kasme := deriveKASME(ck, ik, sqn, ak, snID)

	return &emmcontext.AuthVector{
		RAND:  rand,
		AUTN:  autn,
		XRES:  res,
		KASME: kasme,
	}, nil
}
