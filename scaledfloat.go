package tinybits

import "math"

// decimalPlaces finds the smallest k in 0..12 such that absVal*10^k is
// exactly representable as a non-negative integer and scaling did not
// lose precision (the scaled integer is >= absVal, guarding against the
// multiply itself rounding away digits). It returns k and the
// scaled integer magnitude, or ok == false if no such k exists.
//
// The probe order gates on the coarse tiers 10^0, 10^4, 10^8, 10^12
// before refining linearly within the tier that hit, rather than walking
// 0..12 one at a time. This matters on boundary doubles where more than
// one k would technically satisfy the property: the gated order picks a
// single deterministic (k, mantissa) pair instead of the smallest k that
// happens to be tried first under a different search order.
func decimalPlaces(absVal float64) (k int, scaled uint64, ok bool) {
	exact := func(x float64) (uint64, bool) {
		if x != math.Trunc(x) || x < 0 || x > math.MaxUint64 {
			return 0, false
		}
		u := uint64(x)
		return u, float64(u) >= absVal
	}

	if u, good := exact(absVal); good {
		return 0, u, true
	}

	if u, good := exact(absVal * 1e4); good {
		if u1, ok1 := exact(absVal * 10); ok1 {
			return 1, u1, true
		}
		if u2, ok2 := exact(absVal * 100); ok2 {
			return 2, u2, true
		}
		if u3, ok3 := exact(absVal * 1000); ok3 {
			return 3, u3, true
		}
		return 4, u, true
	}

	if u, good := exact(absVal * 1e8); good {
		if u5, ok5 := exact(absVal * 1e5); ok5 {
			return 5, u5, true
		}
		if u6, ok6 := exact(absVal * 1e6); ok6 {
			return 6, u6, true
		}
		if u7, ok7 := exact(absVal * 1e7); ok7 {
			return 7, u7, true
		}
		return 8, u, true
	}

	if u, good := exact(absVal * 1e12); good {
		if u9, ok9 := exact(absVal * 1e9); ok9 {
			return 9, u9, true
		}
		if u10, ok10 := exact(absVal * 1e10); ok10 {
			return 10, u10, true
		}
		if u11, ok11 := exact(absVal * 1e11); ok11 {
			return 11, u11, true
		}
		return 12, u, true
	}

	return 0, 0, false
}

// maxScaledMantissa is the mantissa ceiling (2^48); at or above this the
// raw 8-byte double is used instead.
const maxScaledMantissa = 1 << 48

// reconstructScaled reverses decimalPlaces: mantissa / 10^k, negated if neg.
func reconstructScaled(mantissa uint64, k int, neg bool) float64 {
	v := float64(mantissa) / powers[k]
	if neg {
		return -v
	}
	return v
}
