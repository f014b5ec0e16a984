package indicator

import (
	"math"

	"github.com/amitbh/stockscope/internal/marketdata"
)

// Result holds the discrete score contributions of one indicator. Scores
// maps persisted column names to values; Final is the indicator's additive
// contribution to the composite score.
type Result struct {
	Scores map[string]float64
	Final  float64
}

// Func computes an indicator over a price series. Implementations are pure
// and must degrade to a neutral zero result on short series or numeric
// faults instead of returning an error; one indicator must never abort the
// whole aggregation.
type Func func(marketdata.Series) Result

// Indicator is a named entry in the registry.
type Indicator struct {
	Name    string
	Compute Func
}

// Registry returns all indicators in a stable order. The aggregator
// iterates this table; adding an indicator means adding a row here.
func Registry() []Indicator {
	return []Indicator{
		{"moving_averages", MovingAverages},
		{"macd", MACD},
		{"adx", ADX},
		{"aroon", Aroon},
		{"detrended_price_oscillator", DetrendedPriceOscillator},
		{"mass_index", MassIndex},
		{"rsi", RSI},
		{"stochastic", Stochastic},
		{"cci", CCI},
		{"williams_r", WilliamsR},
		{"ultimate_oscillator", UltimateOscillator},
		{"rate_of_change", RateOfChange},
		{"on_balance_volume", OnBalanceVolume},
		{"money_flow_index", MoneyFlowIndex},
		{"chaikin_oscillator", ChaikinOscillator},
		{"ease_of_movement", EaseOfMovement},
		{"negative_volume_index", NegativeVolumeIndex},
		{"positive_volume_index", PositiveVolumeIndex},
		{"price_volume_trend", PriceVolumeTrend},
		{"bollinger_bands", BollingerBands},
		{"keltner_channel", KeltnerChannel},
		{"true_range", TrueRange},
	}
}

// single wraps a one-column score.
func single(column string, score float64) Result {
	return Result{Scores: map[string]float64{column: score}, Final: score}
}

// threshold maps a continuous value to +1 above upper, -1 below lower and
// 0 otherwise. Non-finite values are neutral.
func threshold(v, upper, lower float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	switch {
	case v > upper:
		return 1
	case v < lower:
		return -1
	default:
		return 0
	}
}

// direction maps a latest-vs-reference comparison to +1 above, -1 below
// and 0 on a tie or non-finite input.
func direction(latest, reference float64) float64 {
	if math.IsNaN(latest) || math.IsInf(latest, 0) ||
		math.IsNaN(reference) || math.IsInf(reference, 0) {
		return 0
	}
	switch {
	case latest > reference:
		return 1
	case latest < reference:
		return -1
	default:
		return 0
	}
}

// rising maps a latest-vs-reference comparison to 1 when strictly above
// and 0 otherwise, including on non-finite input.
func rising(latest, reference float64) float64 {
	if math.IsNaN(latest) || math.IsInf(latest, 0) ||
		math.IsNaN(reference) || math.IsInf(reference, 0) {
		return 0
	}
	if latest > reference {
		return 1
	}
	return 0
}
