package reactive

import (
	"fmt"
	"math"

	"github.com/kbukum/rxkit/errors"
)

// Demand is the number of values a subscriber allows a publisher to send.
// It is either a non-negative count or unlimited. The zero value is None.
type Demand struct {
	n         int64
	unlimited bool
}

var (
	// None grants no additional values. It is the identity of Add.
	None = Demand{}
	// Unlimited grants every value the publisher can produce. It absorbs Add.
	Unlimited = Demand{unlimited: true}
)

// Max returns a demand for n values. A negative n is a protocol violation.
func Max(n int64) Demand {
	if n < 0 {
		panic(errors.ProtocolViolation(fmt.Sprintf("negative demand %d", n)))
	}
	return Demand{n: n}
}

// IsUnlimited reports whether d is Unlimited.
func (d Demand) IsUnlimited() bool { return d.unlimited }

// IsZero reports whether d grants nothing.
func (d Demand) IsZero() bool { return !d.unlimited && d.n == 0 }

// Count returns the bounded amount, or math.MaxInt64 when unlimited.
func (d Demand) Count() int64 {
	if d.unlimited {
		return math.MaxInt64
	}
	return d.n
}

// Add returns d + o. Overflow saturates to Unlimited.
func (d Demand) Add(o Demand) Demand {
	if d.unlimited || o.unlimited {
		return Unlimited
	}
	if d.n > math.MaxInt64-o.n {
		return Unlimited
	}
	return Demand{n: d.n + o.n}
}

// Sub consumes n values from d. Unlimited stays unlimited.
// Consuming more than d grants is a protocol violation.
func (d Demand) Sub(n int64) Demand {
	if d.unlimited {
		return d
	}
	if n < 0 || n > d.n {
		panic(errors.ProtocolViolation(fmt.Sprintf("consumed %d values with demand %d", n, d.n)))
	}
	return Demand{n: d.n - n}
}

func (d Demand) String() string {
	if d.unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("max(%d)", d.n)
}
