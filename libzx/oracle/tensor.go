package oracle

import (
	"math"
	"math/bits"
	"math/cmplx"
)

// tensor is a dense tensor with one qubit-sized axis per leg.
// Axis 0 is the most significant bit of an index into data.
type tensor struct {
	legs []int
	data []complex128
}

func newTensor(legs ...int) *tensor {
	return &tensor{
		legs: legs,
		data: make([]complex128, 1<<len(legs)),
	}
}

func (t *tensor) bit(axis int) int {
	return 1 << (len(t.legs) - 1 - axis)
}

func (t *tensor) axis(leg int) int {
	for i, l := range t.legs {
		if l == leg {
			return i
		}
	}
	return -1
}

func expi(f float64) complex128 {
	return cmplx.Exp(complex(0, math.Pi*f))
}

// zSpider is 1 on the all-zeros index and e^{iπα} on the all-ones index.
func zSpider(alpha float64, legs ...int) *tensor {
	t := newTensor(legs...)
	t.data[0] += 1
	t.data[len(t.data)-1] += expi(alpha)
	return t
}

// xSpider is the Hadamard conjugate of a Z spider: 2^{-k/2} (1 + e^{iπα}(-1)^|b|).
func xSpider(alpha float64, legs ...int) *tensor {
	t := newTensor(legs...)
	e := expi(alpha)
	norm := complex(math.Pow(math.Sqrt2, -float64(len(legs))), 0)
	for i := range t.data {
		val := 1 + e
		if bits.OnesCount(uint(i))%2 == 1 {
			val = 1 - e
		}
		t.data[i] = norm * val
	}
	return t
}

// hBox is 1 everywhere except e^{iπα} on the all-ones index.
func hBox(alpha float64, legs ...int) *tensor {
	t := newTensor(legs...)
	for i := range t.data {
		t.data[i] = 1
	}
	t.data[len(t.data)-1] = expi(alpha)
	return t
}

// wire is the identity between two legs.
func wire(a, b int) *tensor {
	t := newTensor(a, b)
	t.data[0] = 1
	t.data[3] = 1
	return t
}

// hadamard applies the 1/√2 [[1,1],[1,-1]] gate along the given axis in place.
func (t *tensor) hadamard(axis int) {
	bit := t.bit(axis)
	for i := range t.data {
		if i&bit != 0 {
			continue
		}
		a, b := t.data[i], t.data[i|bit]
		t.data[i] = (a + b) / math.Sqrt2
		t.data[i|bit] = (a - b) / math.Sqrt2
	}
}

func (t *tensor) scale(c complex128) {
	for i := range t.data {
		t.data[i] *= c
	}
}

// contract sums over every leg a and b share.  The result's legs are a's free legs then b's.
func contract(a, b *tensor) *tensor {
	var sharedA, sharedB, freeA, freeB []int
	for i, l := range a.legs {
		if j := b.axis(l); j >= 0 {
			sharedA = append(sharedA, i)
			sharedB = append(sharedB, j)
		} else {
			freeA = append(freeA, i)
		}
	}
	for j, l := range b.legs {
		if a.axis(l) < 0 {
			freeB = append(freeB, j)
		}
	}

	legs := make([]int, 0, len(freeA)+len(freeB))
	for _, i := range freeA {
		legs = append(legs, a.legs[i])
	}
	for _, j := range freeB {
		legs = append(legs, b.legs[j])
	}
	out := newTensor(legs...)

	for o := range out.data {
		ia, ib := 0, 0
		for k, i := range freeA {
			if o&out.bit(k) != 0 {
				ia |= a.bit(i)
			}
		}
		for k, j := range freeB {
			if o&out.bit(len(freeA)+k) != 0 {
				ib |= b.bit(j)
			}
		}
		var sum complex128
		for s := 0; s < 1<<len(sharedA); s++ {
			ja, jb := ia, ib
			for k := range sharedA {
				if s&(1<<k) != 0 {
					ja |= a.bit(sharedA[k])
					jb |= b.bit(sharedB[k])
				}
			}
			sum += a.data[ja] * b.data[jb]
		}
		out.data[o] = sum
	}
	return out
}

// permute reorders t's axes to follow legs, which must be a permutation of t.legs.
func (t *tensor) permute(legs []int) *tensor {
	out := newTensor(legs...)
	src := make([]int, len(legs))
	for k, l := range legs {
		src[k] = t.bit(t.axis(l))
	}
	for o := range out.data {
		i := 0
		for k := range legs {
			if o&out.bit(k) != 0 {
				i |= src[k]
			}
		}
		out.data[o] = t.data[i]
	}
	return out
}
