package common

import "go.uber.org/atomic"

type SeqGenerator interface {
	GenerateSequence() uint64
}

// AtomicSeqGenerator hands out increasing ids starting at the value it was created with. It is passed
// explicitly to whatever needs ids (tile group factories, transaction managers) rather than living in a global.
type AtomicSeqGenerator struct {
	next atomic.Uint64
}

func NewAtomicSeqGenerator(start uint64) *AtomicSeqGenerator {
	g := &AtomicSeqGenerator{}
	g.next.Store(start)
	return g
}

func (g *AtomicSeqGenerator) GenerateSequence() uint64 {
	return g.next.Inc() - 1
}

// Peek returns the id the next call to GenerateSequence will return.
func (g *AtomicSeqGenerator) Peek() uint64 {
	return g.next.Load()
}

// PreAllocatedSeqGenerator enumerates a fixed, already obtained sequence of ids. Tests use it to pin tile group
// ids.
type PreAllocatedSeqGenerator struct {
	sequences []uint64
	index     int
}

func NewPreallocSeqGen(seq []uint64) *PreAllocatedSeqGenerator {
	return &PreAllocatedSeqGenerator{
		sequences: seq,
		index:     0,
	}
}

func (p *PreAllocatedSeqGenerator) GenerateSequence() uint64 {
	if p.index >= len(p.sequences) {
		panic("not enough sequence values")
	}
	res := p.sequences[p.index]
	p.index++
	return res
}
