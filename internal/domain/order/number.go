package order

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

const (
	numberAttempts       = 5
	defaultDailyCapacity = 50_000
	numberFPR            = 0.0001
)

// NumberGenerator issues display order numbers of the form
// ORD-YYYYMMDD-XXXXXXXX.
//
// Numbers issued today are tracked in a bloom filter; a candidate that may
// have been issued already is regenerated. This only covers the current
// process and is not a uniqueness guarantee.
type NumberGenerator struct {
	mu     sync.Mutex
	day    string
	issued *bloom.BloomFilter
	suffix func() string
}

// NewNumberGenerator creates a generator sized for dailyCapacity orders.
func NewNumberGenerator(dailyCapacity uint) *NumberGenerator {
	if dailyCapacity == 0 {
		dailyCapacity = defaultDailyCapacity
	}
	return &NumberGenerator{
		issued: bloom.NewWithEstimates(dailyCapacity, numberFPR),
		suffix: randomSuffix,
	}
}

// Next returns a new order number dated by now.
func (g *NumberGenerator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	day := now.Format("20060102")
	if day != g.day {
		g.day = day
		g.issued.ClearAll()
	}

	var n string
	for range numberAttempts {
		n = fmt.Sprintf("ORD-%s-%s", day, g.suffix())
		if !g.issued.TestString(n) {
			break
		}
	}
	g.issued.AddString(n)
	return n
}

func randomSuffix() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
