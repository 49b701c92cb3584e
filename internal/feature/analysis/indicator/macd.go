package indicator

// MACD computes the moving-average convergence/divergence line and its
// signal line. The MACD line is fast EMA minus slow EMA over the closes;
// the signal line is an EMA of the MACD line.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine []float64, err error) {
	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return nil, nil, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return nil, nil, err
	}

	macd = make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine, err = EMA(macd, signal)
	if err != nil {
		return nil, nil, err
	}
	return macd, signalLine, nil
}
