package indicator

import (
	"math"

	"github.com/amitbh/stockscope/internal/marketdata"
)

// MovingAverages scores the 20/50/200-day moving-average triad. Two
// sub-scores compare adjacent averages on the latest bar; the trend
// sub-score requires both to have held on the previous bar, so a cross
// only counts after it has survived one full session.
func MovingAverages(s marketdata.Series) Result {
	neutral := Result{
		Scores: map[string]float64{
			"ma_20_50_score":  0,
			"ma_50_200_score": 0,
			"ma_trend_score":  0,
		},
	}
	if len(s) < 2 {
		return neutral
	}

	closes := s.Closes()
	ma20 := sma(closes, 20)
	ma50 := sma(closes, 50)
	ma200 := sma(closes, 200)

	shortOverMid := rising(last(ma20), last(ma50))
	midOverLong := rising(last(ma50), last(ma200))

	var trend float64
	if prior(ma20) > prior(ma50) && prior(ma50) > prior(ma200) {
		trend = 1
	}

	return Result{
		Scores: map[string]float64{
			"ma_20_50_score":  shortOverMid,
			"ma_50_200_score": midOverLong,
			"ma_trend_score":  trend,
		},
		Final: shortOverMid + midOverLong + trend,
	}
}

// MACD scores the MACD(12,26,9) histogram: 1 when positive, 0 otherwise.
func MACD(s marketdata.Series) Result {
	if len(s) < 2 {
		return single("macd_score", 0)
	}

	closes := s.Closes()
	fast := emaSpan(closes, 12)
	slow := emaSpan(closes, 26)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signal := emaSpan(macd, 9)

	return single("macd_score", rising(last(macd), last(signal)))
}

// ADX scores trend strength via the Average Directional Index(14) with
// Wilder smoothing: above 75 is a strong trend, below 25 no trend.
func ADX(s marketdata.Series) Result {
	const period = 14
	if len(s) < 2*period {
		return single("adx_score", 0)
	}

	tr := trueRanges(s)
	plusDM := make([]float64, len(s))
	minusDM := make([]float64, len(s))
	for i := 1; i < len(s); i++ {
		up := s[i].High - s[i-1].High
		down := s[i-1].Low - s[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	smTR := wilderSmooth(tr[1:], period)
	smPlus := wilderSmooth(plusDM[1:], period)
	smMinus := wilderSmooth(minusDM[1:], period)

	dx := make([]float64, 0, len(smTR))
	for i := range smTR {
		if math.IsNaN(smTR[i]) || smTR[i] == 0 {
			continue
		}
		plusDI := 100 * smPlus[i] / smTR[i]
		minusDI := 100 * smMinus[i] / smTR[i]
		sum := plusDI + minusDI
		if sum == 0 {
			continue
		}
		dx = append(dx, 100*math.Abs(plusDI-minusDI)/sum)
	}
	if len(dx) < period {
		return single("adx_score", 0)
	}

	adx := wilderSmooth(dx, period)
	return single("adx_score", threshold(last(adx), 75, 25))
}

// Aroon scores the Aroon oscillator(25): up-phase strength above 50,
// down-phase strength below -50.
func Aroon(s marketdata.Series) Result {
	const length = 25
	if len(s) < length+1 {
		return single("aroon_score", 0)
	}

	window := s[len(s)-length-1:]
	hiIdx, loIdx := 0, 0
	for i := range window {
		if window[i].High >= window[hiIdx].High {
			hiIdx = i
		}
		if window[i].Low <= window[loIdx].Low {
			loIdx = i
		}
	}

	up := 100 * float64(hiIdx) / float64(length)
	down := 100 * float64(loIdx) / float64(length)

	return single("aroon_score", threshold(up-down, 50, -50))
}

// DetrendedPriceOscillator compares the DPO(20) against its own 20-span
// EMA and scores the side it sits on.
func DetrendedPriceOscillator(s marketdata.Series) Result {
	const length = 20
	shift := length/2 + 1
	if len(s) < length+shift {
		return single("detrended_price_oscillator_score", 0)
	}

	closes := s.Closes()
	means := sma(closes, length)

	dpo := make([]float64, 0, len(closes))
	for i := length - 1; i < len(closes); i++ {
		dpo = append(dpo, closes[i-shift]-means[i])
	}
	smooth := emaSpan(dpo, length)

	return single("detrended_price_oscillator_score", direction(last(dpo), last(smooth)))
}

// MassIndex scores the ratio of the 9-day to the 25-day sum of the daily
// high-low range: above 27 signals a volatility bulge, below 25 a
// contraction.
func MassIndex(s marketdata.Series) Result {
	const short, long = 9, 25
	if len(s) < long {
		return single("mass_index_score", 0)
	}

	ranges := make([]float64, len(s))
	for i, b := range s {
		ranges[i] = b.High - b.Low
	}

	nine := last(rollingSum(ranges, short))
	twentyFive := last(rollingSum(ranges, long))
	if twentyFive == 0 {
		return single("mass_index_score", 0)
	}

	return single("mass_index_score", threshold(nine/twentyFive, 27, 25))
}
