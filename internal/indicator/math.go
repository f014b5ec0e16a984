package indicator

import (
	"math"

	"github.com/amitbh/stockscope/internal/marketdata"
)

// sma computes a rolling simple moving average. The warmup averages
// whatever bars exist so far instead of emitting NaN, so young listings
// still produce a usable value.
func sma(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		n := window
		if i < window {
			n = i + 1
		} else {
			sum -= values[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// emaSpan computes an exponential moving average with alpha = 2/(span+1),
// seeded from the first value.
func emaSpan(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rollingSum computes a windowed sum; positions before a full window are
// NaN.
func rollingSum(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rollingMax computes a windowed maximum; positions before a full window
// are NaN.
func rollingMax(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		m := values[i]
		for j := i - window + 1; j < i; j++ {
			if values[j] > m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

// rollingMin computes a windowed minimum; positions before a full window
// are NaN.
func rollingMin(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		m := values[i]
		for j := i - window + 1; j < i; j++ {
			if values[j] < m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

// stdDev computes the rolling sample standard deviation; positions before
// a full window are NaN.
func stdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	means := sma(values, window)
	for i := range values {
		if i < window-1 || window < 2 {
			out[i] = math.NaN()
			continue
		}
		var ss float64
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - means[i]
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// trueRanges computes the per-bar true range. The first bar has no prior
// close, so its range is high minus low.
func trueRanges(s marketdata.Series) []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		tr := b.High - b.Low
		if i > 0 {
			prevClose := s[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
		}
		out[i] = tr
	}
	return out
}

// wilderSmooth applies Wilder's smoothing: a simple average over the first
// period, then prev + (value - prev) / period.
func wilderSmooth(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) < period {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		switch {
		case i < period-1:
			sum += values[i]
			out[i] = math.NaN()
		case i == period-1:
			sum += values[i]
			out[i] = sum / float64(period)
		default:
			out[i] = out[i-1] + (values[i]-out[i-1])/float64(period)
		}
	}
	return out
}

// SMA exposes the rolling simple moving average for callers outside the
// registry, such as the sell-trigger rules.
func SMA(values []float64, window int) []float64 {
	return sma(values, window)
}

// EMA exposes the span-parameterized exponential moving average.
func EMA(values []float64, span int) []float64 {
	return emaSpan(values, span)
}

// last returns the final element, or NaN for an empty slice.
func last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

// prior returns the second-to-last element, or NaN when there is none.
func prior(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	return values[len(values)-2]
}
