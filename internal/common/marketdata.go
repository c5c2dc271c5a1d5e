package common

// L2MarketData is the top-N-levels market-data snapshot returned on
// demand. Volumes are each bucket's visible (not total) volume.
type L2MarketData struct {
	AskPrices  []Price
	AskVolumes []Size
	BidPrices  []Price
	BidVolumes []Size
}

func NewL2MarketData(depth int) L2MarketData {
	return L2MarketData{
		AskPrices:  make([]Price, 0, depth),
		AskVolumes: make([]Size, 0, depth),
		BidPrices:  make([]Price, 0, depth),
		BidVolumes: make([]Size, 0, depth),
	}
}
