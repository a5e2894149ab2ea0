package isatest

import "math"

// The float8 codecs implement the FNUZ encodings the conversion opcodes
// operate on: e4m3fnuz (bias 8, max 240) and e5m2fnuz (bias 16, max
// 57344). Neither format has infinities or a negative zero; the single
// NaN is the sign bit over a zero payload (0x80). Out-of-range values
// saturate to the largest finite magnitude.

func fp8Params(bf8 bool) (expBits, mantBits, bias int) {
	if bf8 {
		return 5, 2, 16
	}
	return 4, 3, 8
}

func fp8Decode(b uint8, bf8 bool) float32 {
	if b == 0x80 {
		return float32(math.NaN())
	}
	expBits, mantBits, bias := fp8Params(bf8)
	exp := int(b>>mantBits) & (1<<expBits - 1)
	mant := int(b) & (1<<mantBits - 1)
	var v float64
	if exp == 0 {
		v = math.Ldexp(float64(mant), 1-bias-mantBits)
	} else {
		v = math.Ldexp(float64(mant|1<<mantBits), exp-bias-mantBits)
	}
	if b&0x80 != 0 {
		v = -v
	}
	return float32(v)
}

func fp8Encode(f float32, bf8 bool) uint8 {
	if f != f {
		return 0x80
	}
	expBits, mantBits, bias := fp8Params(bf8)
	var sign uint8
	v := float64(f)
	if math.Signbit(v) {
		sign = 0x80
		v = -v
	}
	if v == 0 {
		return 0
	}
	maxV := math.Ldexp(float64(int(1)<<mantBits|(int(1)<<mantBits-1)), (1<<expBits-1)-bias-mantBits)
	if v >= maxV {
		return sign | 0x7f
	}

	frac, exp2 := math.Frexp(v) // v = frac * 2^exp2 with frac in [0.5, 1)
	biased := exp2 - 1 + bias
	var code int
	if biased >= 1 {
		mant := int(math.RoundToEven((frac*2 - 1) * float64(int(1)<<mantBits)))
		if mant == 1<<mantBits {
			mant = 0
			biased++
		}
		code = biased<<mantBits | mant
	} else {
		// Subnormal range; rounding up to 1<<mantBits lands exactly on the
		// first normal code.
		code = int(math.RoundToEven(math.Ldexp(v, bias-1+mantBits)))
	}
	if code == 0 {
		return 0 // underflow keeps the unsigned zero, the format has no -0
	}
	return sign | uint8(code)
}
