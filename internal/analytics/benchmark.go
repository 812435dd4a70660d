package analytics

// BuildBTCPriceMap indexes benchmark price snapshots by date key. Snapshots
// whose dates cannot be normalized are silently dropped.
func BuildBTCPriceMap(snapshots []BenchmarkSnapshot) map[string]float64 {
	priceMap := make(map[string]float64, len(snapshots))

	for _, snap := range snapshots {
		key := DateKey(snap.Date)
		if key == "" {
			continue
		}
		priceMap[key] = snap.PriceUSD
	}

	return priceMap
}

// FindBTCBaseline scans the portfolio timeline in order and returns the
// first date for which a benchmark price exists, together with that price.
// Benchmark comparison starts only once both series overlap; earlier
// portfolio dates are excluded from benchmark normalization. Returns
// (nil, "") when the series never overlap.
func FindBTCBaseline(values []PortfolioValuePoint, priceMap map[string]float64) (*float64, string) {
	for _, v := range values {
		key := DateKey(v.Date)
		if key == "" {
			continue
		}
		if price, ok := priceMap[key]; ok {
			p := price
			return &p, key
		}
	}

	return nil, ""
}

// BTCEquivalent computes what the baseline investment would be worth had it
// been converted to the benchmark asset at the baseline date and held.
// Returns nil - never NaN - when any input is missing or non-positive, or
// when the date has no benchmark price.
func BTCEquivalent(dateKey string, priceMap map[string]float64, firstBTCPrice *float64, baselinePortfolioValue float64) *float64 {
	if dateKey == "" || firstBTCPrice == nil || *firstBTCPrice <= 0 || baselinePortfolioValue <= 0 {
		return nil
	}

	currentPrice, ok := priceMap[dateKey]
	if !ok || currentPrice <= 0 {
		return nil
	}

	equivalent := (baselinePortfolioValue / *firstBTCPrice) * currentPrice
	return &equivalent
}
