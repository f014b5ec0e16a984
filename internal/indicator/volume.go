package indicator

import (
	"github.com/amitbh/stockscope/internal/marketdata"
)

// OnBalanceVolume scores cumulative OBV against its own 20-span EMA.
func OnBalanceVolume(s marketdata.Series) Result {
	if len(s) < 2 {
		return single("on_balance_volume_score", 0)
	}

	obv := make([]float64, len(s))
	for i := 1; i < len(s); i++ {
		switch {
		case s[i].Close > s[i-1].Close:
			obv[i] = obv[i-1] + s[i].Volume
		case s[i].Close < s[i-1].Close:
			obv[i] = obv[i-1] - s[i].Volume
		default:
			obv[i] = obv[i-1]
		}
	}
	smooth := emaSpan(obv, 20)

	return single("on_balance_volume_score", direction(last(obv), last(smooth)))
}

// MoneyFlowIndex scores the MFI(14) against the 80/20 bands.
func MoneyFlowIndex(s marketdata.Series) Result {
	const period = 14
	if len(s) < period+1 {
		return single("money_flow_index_score", 0)
	}

	var posSum, negSum float64
	for i := len(s) - period; i < len(s); i++ {
		tp := (s[i].High + s[i].Low + s[i].Close) / 3
		prevTP := (s[i-1].High + s[i-1].Low + s[i-1].Close) / 3
		flow := tp * s[i].Volume
		switch {
		case tp > prevTP:
			posSum += flow
		case tp < prevTP:
			negSum += flow
		}
	}

	var mfi float64
	switch {
	case posSum == 0 && negSum == 0:
		return single("money_flow_index_score", 0)
	case negSum == 0:
		mfi = 100
	default:
		mfi = 100 - 100/(1+posSum/negSum)
	}

	return single("money_flow_index_score", threshold(mfi, 80, 20))
}

// ChaikinOscillator scores the spread between the 3- and 10-span EMAs of
// the per-bar accumulation/distribution flow against the +-50 bands.
func ChaikinOscillator(s marketdata.Series) Result {
	if len(s) < 10 {
		return single("chaikin_oscillator_score", 0)
	}

	flow := make([]float64, len(s))
	for i, b := range s {
		span := b.High - b.Low
		if span == 0 {
			continue
		}
		multiplier := (2*b.Close - b.High - b.Low) / span
		flow[i] = multiplier * b.Close * b.Volume
	}

	osc := last(emaSpan(flow, 3)) - last(emaSpan(flow, 10))
	return single("chaikin_oscillator_score", threshold(osc, 50, -50))
}

// EaseOfMovement scores the direction of the EMV series between the last
// two bars. The box ratio scales volume by the bar's range in thousands.
func EaseOfMovement(s marketdata.Series) Result {
	if len(s) < 3 {
		return single("ease_of_movement_score", 0)
	}

	emv := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		span := s[i].High - s[i].Low
		if span == 0 || s[i].Volume == 0 {
			emv = append(emv, 0)
			continue
		}
		distance := (s[i].High+s[i].Low)/2 - (s[i-1].High+s[i-1].Low)/2
		boxRatio := s[i].Volume / (span * 1000)
		emv = append(emv, distance/boxRatio)
	}

	return single("ease_of_movement_score", direction(last(emv), prior(emv)))
}

// NegativeVolumeIndex scores the NVI, which only moves on falling-volume
// sessions: 1 when the latest bar pushed it higher, 0 otherwise.
func NegativeVolumeIndex(s marketdata.Series) Result {
	if len(s) < 2 {
		return single("negative_volume_index_score", 0)
	}

	nvi := volumeIndex(s, func(cur, prev float64) bool { return cur < prev })
	return single("negative_volume_index_score", rising(last(nvi), prior(nvi)))
}

// PositiveVolumeIndex scores the PVI, which only moves on rising-volume
// sessions: 1 when the latest bar pushed it higher, 0 otherwise.
func PositiveVolumeIndex(s marketdata.Series) Result {
	if len(s) < 2 {
		return single("positive_volume_index_score", 0)
	}

	pvi := volumeIndex(s, func(cur, prev float64) bool { return cur > prev })
	return single("positive_volume_index_score", rising(last(pvi), prior(pvi)))
}

// volumeIndex builds a cumulative index seeded at 1000 that compounds the
// close-to-close return only on bars where the volume predicate holds.
func volumeIndex(s marketdata.Series, active func(cur, prev float64) bool) []float64 {
	idx := make([]float64, len(s))
	idx[0] = 1000
	for i := 1; i < len(s); i++ {
		idx[i] = idx[i-1]
		if active(s[i].Volume, s[i-1].Volume) && s[i-1].Close != 0 {
			ret := (s[i].Close - s[i-1].Close) / s[i-1].Close
			idx[i] = idx[i-1] * (1 + ret)
		}
	}
	return idx
}

// PriceVolumeTrend scores the cumulative PVT by its latest direction: 1
// when rising, 0 otherwise.
func PriceVolumeTrend(s marketdata.Series) Result {
	if len(s) < 3 {
		return single("price_volume_trend_score", 0)
	}

	pvt := make([]float64, len(s))
	for i := 1; i < len(s); i++ {
		pvt[i] = pvt[i-1]
		if s[i-1].Close != 0 {
			pvt[i] += (s[i].Close - s[i-1].Close) / s[i-1].Close * s[i].Volume
		}
	}

	return single("price_volume_trend_score", rising(last(pvt), prior(pvt)))
}
