package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceParams_Ranges(t *testing.T) {
	r := DefaultParamRanges()
	params := GenerateInstanceParams(5000, 7, r)

	for i, p := range params {
		if p.Life < 0 || p.Life >= r.LifeRange {
			t.Fatalf("instance %d: life %v outside [0, %v)", i, p.Life, r.LifeRange)
		}
		if p.SpeedFactor < 0.5 || p.SpeedFactor >= 2 {
			t.Fatalf("instance %d: speed factor %v outside [0.5, 2)", i, p.SpeedFactor)
		}
		for c := 0; c < 3; c++ {
			if p.Offset[c] < -1 || p.Offset[c] >= 1 {
				t.Fatalf("instance %d: offset %v outside [-1, 1)", i, p.Offset)
			}
		}
	}
}

func TestInstanceParams_StablePerIndex(t *testing.T) {
	r := DefaultParamRanges()
	table := GenerateInstanceParams(64, 42, r)

	assert.Equal(t, table[17], InstanceParamsAt(17, 42, r))
	assert.Equal(t, table, GenerateInstanceParams(64, 42, r))
	assert.NotEqual(t, table[17], table[18])
	assert.NotEqual(t, table[17], InstanceParamsAt(17, 43, r))
}

func TestInstanceParams_ZeroLifeRange(t *testing.T) {
	r := DefaultParamRanges()
	r.LifeRange = 0

	for _, p := range GenerateInstanceParams(16, 1, r) {
		assert.Equal(t, float32(0), p.Life)
	}
}
