package loadpattern

import (
	"math"
	"sync/atomic"
)

// atomicFloat stores a float64 lock-free by reinterpreting its bits as
// a uint64, the same trick used throughout the corpus wherever a
// float needs atomic access without a mutex.
type atomicFloat struct{ bits atomic.Uint64 }

func (a *atomicFloat) store(v float64) { a.bits.Store(math.Float64bits(v)) }
func (a *atomicFloat) load() float64   { return math.Float64frombits(a.bits.Load()) }

type atomicState struct{ v atomic.Int32 }

func (a *atomicState) store(v int32) { a.v.Store(v) }
func (a *atomicState) load() int32   { return a.v.Load() }

type atomicDuration struct{ v atomic.Int64 }

func (a *atomicDuration) store(v int64) { a.v.Store(v) }
func (a *atomicDuration) load() int64   { return a.v.Load() }
