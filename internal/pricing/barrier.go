package pricing

import "math"

// DownAndOut prices equity under the Black-Cox first-passage model: a down-and-out
// call struck at D that is extinguished the first time V touches the barrier h.
// h must not exceed D; h <= 0 degenerates to Merton.
//
// With beta = 2r/sigma^2 - 1 the image-method form is
//
//	C_do(V) = C(V) - (h/V)^beta * C(h^2/V)
//
// which matches the c - c_di closed form for a barrier at or below the strike.
func DownAndOut(p Params, h float64) Quote {
	if h <= 0 {
		return Merton(p)
	}
	if !(p.V > 0) || !(p.D > 0) {
		return Quote{Case: CaseNonPositiveAsset}
	}
	if p.V <= h {
		return Quote{Case: CaseKnockedOut}
	}
	if p.Tau <= 0 {
		return expired(p)
	}
	if p.Sigma <= 0 {
		// The path is monotone, so it touches h only if it decays through it.
		if p.V*math.Min(1, math.Exp(p.R*p.Tau)) <= h {
			return Quote{Case: CaseKnockedOut}
		}
		return deterministic(p)
	}

	plain := Merton(p)

	img := p
	img.V = h * h / p.V
	image := Merton(img)

	beta := 2*p.R/(p.Sigma*p.Sigma) - 1
	logW := beta * math.Log(h/p.V)

	knockIn := weighted(logW, image.Equity)
	// d/dV [(h/V)^beta * C(h^2/V)] = -beta/V*C_di - (h/V)^beta * Φ(y) * h^2/V^2
	slope := weighted(logW, image.Delta) * img.V / p.V

	q := Quote{
		Equity: plain.Equity - knockIn,
		Delta:  plain.Delta + beta/p.V*knockIn + slope,
	}
	if q.Equity < 0 {
		q.Equity = 0
	}
	return q
}
