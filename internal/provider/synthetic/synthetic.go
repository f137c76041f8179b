// Package synthetic produces plausible stand-in quotes when no live
// provider can serve a symbol. Generation never fails, so the chain
// always terminates in a quote.
package synthetic

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"quotedesk/internal/market"
	"quotedesk/internal/provider"
)

const (
	// priceFloorRatio keeps generated prices from collapsing below a
	// sane fraction of the baseline.
	priceFloorRatio = 0.8
	// oscPeriod is the wall-clock period of the deterministic component,
	// so consecutive requests drift rather than jump.
	oscPeriod = 600 // seconds

	volumeMin  = 100_000
	volumeSpan = 5_000_000
)

// Generator builds synthetic quotes from the symbol metadata baselines.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func New() *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Generate returns a fully populated mock quote for symbol. The change is
// a sinusoid of wall-clock time plus noise, both scaled by the symbol's
// baseline volatility.
func (g *Generator) Generate(symbol string) provider.Quote {
	meta := market.LookupOrDefault(symbol)

	g.mu.Lock()
	noise := g.rng.Float64()*2 - 1
	volume := volumeMin + g.rng.Int63n(volumeSpan)
	now := g.now()
	g.mu.Unlock()

	osc := math.Sin(2 * math.Pi * float64(now.Unix()%oscPeriod) / oscPeriod)
	change := meta.Baseline * meta.Volatility * (2*osc + 3*noise)

	price := meta.Baseline + change
	if floor := meta.Baseline * priceFloorRatio; price < floor {
		price = floor
	}

	q := provider.Quote{
		Symbol:        meta.Symbol,
		Name:          meta.Name,
		Sector:        meta.Sector,
		Exchange:      meta.Exchange,
		Currency:      meta.Currency,
		Price:         price,
		Change:        change,
		High:          price + 0.6*math.Abs(change),
		Low:           price - 0.6*math.Abs(change),
		PreviousClose: price - change,
		Volume:        volume,
		MarketCap:     price * meta.SharesOutstanding,
		Timestamp:     now,
		Source:        provider.SourceSynthetic,
		Mock:          true,
	}
	provider.Finalize(&q, now)
	return q
}
