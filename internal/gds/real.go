package gds

import "math"

// GDSII reals are sign-magnitude with a 7-bit excess-64 base-16 exponent and a
// 56-bit mantissa: value = mantissa / 2^56 * 16^(exponent-64).

const mantissaBits = 56

func decodeReal8(bits uint64) float64 {
	mantissa := bits & (1<<mantissaBits - 1)
	if mantissa == 0 {
		return 0
	}
	exponent := int((bits>>mantissaBits)&0x7F) - 64
	value := math.Ldexp(float64(mantissa), 4*exponent-mantissaBits)
	if bits>>63 == 1 {
		return -value
	}
	return value
}

func encodeReal8(v float64) uint64 {
	if v == 0 || math.IsNaN(v) {
		return 0
	}
	var sign uint64
	if v < 0 {
		sign = 1
		v = -v
	}
	exponent := 64
	for v >= 1 {
		v /= 16
		exponent++
	}
	for v < 1.0/16 {
		v *= 16
		exponent--
	}
	mantissa := uint64(math.Round(v * (1 << mantissaBits)))
	if mantissa >= 1<<mantissaBits {
		mantissa >>= 4
		exponent++
	}
	if exponent < 0 {
		return 0
	}
	if exponent > 0x7F {
		exponent = 0x7F
		mantissa = 1<<mantissaBits - 1
	}
	return sign<<63 | uint64(exponent)<<mantissaBits | mantissa
}
