package indicator

import (
	"math"

	"github.com/amitbh/stockscope/internal/marketdata"
)

// RSI scores the Wilder RSI(14): +1 when oversold below 30, -1 when
// overbought above 70.
func RSI(s marketdata.Series) Result {
	const period = 14
	if len(s) < period+1 {
		return single("rsi_score", 0)
	}

	closes := s.Closes()
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := last(wilderSmooth(gains, period))
	avgLoss := last(wilderSmooth(losses, period))

	var rsi float64
	switch {
	case avgLoss == 0 && avgGain == 0:
		return single("rsi_score", 0)
	case avgLoss == 0:
		rsi = 100
	default:
		rsi = 100 - 100/(1+avgGain/avgLoss)
	}

	switch {
	case rsi < 30:
		return single("rsi_score", 1)
	case rsi > 70:
		return single("rsi_score", -1)
	default:
		return single("rsi_score", 0)
	}
}

// RawRSI exposes the latest RSI(14) value itself. The broad-mode ranking
// filter uses the raw level, not the discrete score. NaN on short series.
func RawRSI(s marketdata.Series) float64 {
	const period = 14
	if len(s) < period+1 {
		return math.NaN()
	}

	closes := s.Closes()
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := last(wilderSmooth(gains, period))
	avgLoss := last(wilderSmooth(losses, period))
	if avgLoss == 0 {
		if avgGain == 0 {
			return math.NaN()
		}
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// Stochastic scores the smoothed %K(14,3): above 80 overbought strength,
// below 20 oversold weakness.
func Stochastic(s marketdata.Series) Result {
	const period, smooth = 14, 3
	if len(s) < period+smooth-1 {
		return single("stochastic_score", 0)
	}

	highs := rollingMax(s.Highs(), period)
	lows := rollingMin(s.Lows(), period)
	closes := s.Closes()

	raw := make([]float64, 0, len(s)-period+1)
	for i := period - 1; i < len(s); i++ {
		span := highs[i] - lows[i]
		if span == 0 {
			raw = append(raw, 50)
			continue
		}
		raw = append(raw, 100*(closes[i]-lows[i])/span)
	}

	k := last(rollingSum(raw, smooth)) / smooth
	return single("stochastic_score", threshold(k, 80, 20))
}

// CCI scores the Commodity Channel Index(20) against the +-100 bands.
func CCI(s marketdata.Series) Result {
	const period = 20
	if len(s) < period {
		return single("cci_score", 0)
	}

	tp := make([]float64, len(s))
	for i, b := range s {
		tp[i] = (b.High + b.Low + b.Close) / 3
	}

	mean := last(sma(tp, period))
	var dev float64
	for i := len(tp) - period; i < len(tp); i++ {
		dev += math.Abs(tp[i] - mean)
	}
	dev /= period
	if dev == 0 {
		return single("cci_score", 0)
	}

	cci := (last(tp) - mean) / (0.015 * dev)
	return single("cci_score", threshold(cci, 100, -100))
}

// WilliamsR scores Williams %R(14): above -20 overbought strength, below
// -80 oversold weakness.
func WilliamsR(s marketdata.Series) Result {
	const period = 14
	if len(s) < period {
		return single("williams_r_score", 0)
	}

	hh := last(rollingMax(s.Highs(), period))
	ll := last(rollingMin(s.Lows(), period))
	if hh == ll {
		return single("williams_r_score", 0)
	}

	r := -100 * (hh - last(s.Closes())) / (hh - ll)
	return single("williams_r_score", threshold(r, -20, -80))
}

// UltimateOscillator scores the Ultimate Oscillator(7,14,28) against the
// 70/30 bands.
func UltimateOscillator(s marketdata.Series) Result {
	const short, mid, long = 7, 14, 28
	if len(s) < long+1 {
		return single("ultimate_oscillator_score", 0)
	}

	bp := make([]float64, len(s)-1)
	tr := make([]float64, len(s)-1)
	for i := 1; i < len(s); i++ {
		lo := math.Min(s[i].Low, s[i-1].Close)
		hi := math.Max(s[i].High, s[i-1].Close)
		bp[i-1] = s[i].Close - lo
		tr[i-1] = hi - lo
	}

	avg := func(window int) float64 {
		trSum := last(rollingSum(tr, window))
		if trSum == 0 {
			return math.NaN()
		}
		return last(rollingSum(bp, window)) / trSum
	}

	uo := 100 * (4*avg(short) + 2*avg(mid) + avg(long)) / 7
	return single("ultimate_oscillator_score", threshold(uo, 70, 30))
}

// RateOfChange scores the 10-day rate of change by its direction against
// the previous bar: 1 when accelerating, 0 otherwise.
func RateOfChange(s marketdata.Series) Result {
	const period = 10
	if len(s) < period+2 {
		return single("rate_of_change_score", 0)
	}

	closes := s.Closes()
	roc := make([]float64, 0, len(closes)-period)
	for i := period; i < len(closes); i++ {
		if closes[i-period] == 0 {
			roc = append(roc, math.NaN())
			continue
		}
		roc = append(roc, 100*(closes[i]-closes[i-period])/closes[i-period])
	}

	return single("rate_of_change_score", rising(last(roc), prior(roc)))
}
