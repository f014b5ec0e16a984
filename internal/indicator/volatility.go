package indicator

import (
	"github.com/amitbh/stockscope/internal/marketdata"
)

// BollingerBands scores the close against the 20-day, 2-sigma bands: 1
// above the upper band, -1 below the lower band.
func BollingerBands(s marketdata.Series) Result {
	const period = 20
	if len(s) < period {
		return single("bollinger_bands_score", 0)
	}

	closes := s.Closes()
	mid := last(sma(closes, period))
	sd := last(stdDev(closes, period))

	close := last(closes)
	switch {
	case close > mid+2*sd:
		return single("bollinger_bands_score", 1)
	case close < mid-2*sd:
		return single("bollinger_bands_score", -1)
	default:
		return single("bollinger_bands_score", 0)
	}
}

// KeltnerChannel scores the direction of the upper channel band, built
// from the 20-span EMA of the close plus twice the 20-span EMA of the
// true range.
func KeltnerChannel(s marketdata.Series) Result {
	if len(s) < 3 {
		return single("keltner_channel_score", 0)
	}

	basis := emaSpan(s.Closes(), 20)
	band := emaSpan(trueRanges(s), 20)

	upper := make([]float64, len(s))
	for i := range upper {
		upper[i] = basis[i] + 2*band[i]
	}

	return single("keltner_channel_score", direction(last(upper), prior(upper)))
}

// TrueRange scores the latest true range against the previous bar's: 1
// when volatility expanded, 0 otherwise.
func TrueRange(s marketdata.Series) Result {
	if len(s) < 2 {
		return single("true_range_score", 0)
	}

	tr := trueRanges(s)
	return single("true_range_score", rising(last(tr), prior(tr)))
}
