// Package reactive provides demand-driven publishers, subscribers and
// operators.
//
// Three roles cooperate on every run of a stream:
//
//   - Publisher: a reusable recipe. Each Subscribe call starts an independent run.
//   - Subscriber: the sink of one run. It receives exactly one Subscription,
//     then zero or more values, then at most one Completion.
//   - Subscription: the control handle of one run. The subscriber uses it to
//     Request more values or to Cancel.
//
// Values only flow when the subscriber has asked for them. Demand granted by
// Request and demand returned from OnNext are additive; the producer keeps the
// running total and never emits past it.
//
// All calls are synchronous. A Subscriber may call Request or Cancel from
// inside OnNext; sources absorb such re-entrant calls without recursing.
// Request and Cancel may also arrive from another goroutine, in which case a
// value already being delivered can still land after Cancel returns.
//
// # Operators
//
//   - Map: apply a pure T -> T transform to each value
//   - Double: Map instantiation for numbers
//   - TryMap: fallible transform; the first error fails the stream
//   - HandleEvents: run hooks on every signal without changing it
//   - Log: HandleEvents that writes every signal to a logger
//   - Serialize: make a multi-goroutine producer safe for one subscriber
//
// # Usage
//
//	doubled := reactive.Double(reactive.Just(5))
//	plusOne := reactive.Map(doubled, func(v int) int { return v + 1 })
//	reactive.Sink(plusOne, func(v int) { fmt.Println(v) }, nil) // 11
package reactive
