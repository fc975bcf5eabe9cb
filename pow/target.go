/*
File Name:  target.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

Proof-of-work target formula, grounded on the Bitmessage protocol's 80-bit
integer target (spec v3), the only one of the two historical formulas whose
test vector (297422525267) checks out.
*/

package pow

import (
	"errors"
	"math/big"
)

// Minimum clamp applied to both nonceTrialsPerByte and payloadLengthExtraBytes.
const minTrialsAndExtraBytes = 1000

// maxSafeTarget is the largest value that still fits a 53-bit integer, matching
// the range JavaScript (and this protocol's reference clients) treat as safe.
const maxSafeTarget = 1<<53 - 1

// ErrTargetOverflow is returned when the computed target does not fit in 53 bits.
var ErrTargetOverflow = errors.New("pow: target does not fit in 53 bits")

// GetTarget computes the proof-of-work target for a payload of the given
// length, time-to-live (seconds), and the object's nonceTrialsPerByte /
// payloadLengthExtraBytes parameters. Both parameters are clamped up to a
// floor of 1000 before use.
func GetTarget(ttl int64, payloadLength int64, nonceTrialsPerByte, payloadLengthExtraBytes int64) (uint64, error) {
	if nonceTrialsPerByte < minTrialsAndExtraBytes {
		nonceTrialsPerByte = minTrialsAndExtraBytes
	}
	if payloadLengthExtraBytes < minTrialsAndExtraBytes {
		payloadLengthExtraBytes = minTrialsAndExtraBytes
	}

	length := big.NewInt(payloadLength + payloadLengthExtraBytes)

	denom := new(big.Int).Add(big.NewInt(ttl), big.NewInt(65536))
	denom.Mul(denom, length)
	denom.Mul(denom, big.NewInt(nonceTrialsPerByte))
	if denom.Sign() <= 0 {
		return 0, ErrTargetOverflow
	}

	numerator := new(big.Int).Lsh(big.NewInt(1), 80)
	target := new(big.Int).Div(numerator, denom)

	if !target.IsUint64() || target.Uint64() > maxSafeTarget {
		return 0, ErrTargetOverflow
	}
	return target.Uint64(), nil
}
