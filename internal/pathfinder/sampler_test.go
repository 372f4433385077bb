package pathfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janzill/fasttrips-go/internal/models"
)

// scenario D of spec.md §8: two equal-cost alternatives should each be
// chosen with frequency ~0.5 over many draws.
func TestChooseState_EqualCostSplitsEvenly(t *testing.T) {
	buckets := []cumState{
		{cumProb: 500, state: models.State{Link: 1}},
		{cumProb: 1000, state: models.State{Link: 2}},
	}

	const draws = 10000
	counts := map[models.StopID]int{}
	sampler := NewMathRandSampler(42)
	for i := 0; i < draws; i++ {
		st := chooseState(sampler, buckets)
		counts[st.Link]++
	}

	freq1 := float64(counts[1]) / draws
	freq2 := float64(counts[2]) / draws
	assert.InDelta(t, 0.5, freq1, 0.02)
	assert.InDelta(t, 0.5, freq2, 0.02)
}

// property 4 of spec.md §8: with a fixed replay sequence, selection is
// reproducible.
func TestChooseState_ReplayIsReproducible(t *testing.T) {
	buckets := []cumState{
		{cumProb: 300, state: models.State{Link: 1}},
		{cumProb: 700, state: models.State{Link: 2}},
		{cumProb: 1000, state: models.State{Link: 3}},
	}
	draws := []int{50, 650, 950, 10}

	run := func() []models.StopID {
		sampler := NewReplaySampler(draws)
		var links []models.StopID
		for i := 0; i < len(draws); i++ {
			links = append(links, chooseState(sampler, buckets).Link)
		}
		return links
	}

	first := run()
	second := run()
	require.Equal(t, []models.StopID{1, 2, 3, 1}, first)
	assert.Equal(t, first, second)
}

func TestChooseState_ZeroTotalAlwaysPicksLastBucket(t *testing.T) {
	buckets := []cumState{
		{cumProb: 0, state: models.State{Link: 1}},
		{cumProb: 0, state: models.State{Link: 2}},
	}
	sampler := NewReplaySampler([]int{7})
	st := chooseState(sampler, buckets)
	assert.Equal(t, models.StopID(2), st.Link)
}
