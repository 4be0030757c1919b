package snn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurofarm/agrispike/protocol"
)

func TestLayerWeightsSeededAndClamped(t *testing.T) {
	a := NewLayer(4, 3, learningRate, rand.New(rand.NewSource(7)))
	b := NewLayer(4, 3, learningRate, rand.New(rand.NewSource(7)))

	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			w := a.Weight(i, j)
			assert.Equal(t, w, b.Weight(i, j), "same seed, same weights")
			assert.LessOrEqual(t, w, weightLimit)
			assert.GreaterOrEqual(t, w, -weightLimit)
		}
	}
}

func TestLayerForwardComputesCurrents(t *testing.T) {
	l := NewLayer(2, 2, learningRate, rand.New(rand.NewSource(1)))
	// Force a known weight matrix: line 0 drives neuron 0 hard, line 1
	// drives neuron 1 below threshold.
	l.weights = []float64{1.0, 0.0, 0.0, 0.4}

	out := l.Forward([]float64{1, 0}, 0)
	assert.Equal(t, []float64{1, 0}, out)

	out = l.Forward([]float64{0, 1}, 1)
	assert.Equal(t, []float64{0, 0}, out, "0.4 stays under threshold")
}

func TestSTDPPotentiationAndDepression(t *testing.T) {
	l := NewLayer(2, 2, 0.01, rand.New(rand.NewSource(1)))
	l.weights = []float64{0.5, 0.5, 0.5, 0.5}

	input := []float64{1, 0}
	output := []float64{1, 0}
	l.STDP(input, output)

	// Traces after decay+absorb: pre=[1,0], post=[1,0].
	// W[0][0]: +lr*1 (column 0 fired) -0.5*lr*1 (row 0 fired) = +0.005 net.
	assert.InDelta(t, 0.505, l.Weight(0, 0), 1e-12)
	// W[0][1]: no potentiation (neuron 1 silent), depression with
	// postTrace[1]=0 -> unchanged.
	assert.InDelta(t, 0.5, l.Weight(0, 1), 1e-12)
	// W[1][0]: potentiation with preTrace[1]=0, no depression (line 1
	// silent) -> unchanged.
	assert.InDelta(t, 0.5, l.Weight(1, 0), 1e-12)
	assert.InDelta(t, 0.5, l.Weight(1, 1), 1e-12)
}

func TestSTDPClampsWeights(t *testing.T) {
	l := NewLayer(1, 1, 10.0, rand.New(rand.NewSource(1)))
	l.weights = []float64{0.9}

	for i := 0; i < 5; i++ {
		l.STDP([]float64{1}, []float64{1})
	}
	assert.Equal(t, weightLimit, l.Weight(0, 0), "potentiation saturates at the clamp")
}

func TestInputIndexLayout(t *testing.T) {
	tests := []struct {
		record protocol.SpikeRecord
		want   int
	}{
		{protocol.SpikeRecord{Sensor: protocol.SensorTemp, Encoding: protocol.EncodingRaw}, 0},
		{protocol.SpikeRecord{Sensor: protocol.SensorTemp, Encoding: protocol.EncodingPopulation}, 3},
		{protocol.SpikeRecord{Sensor: protocol.SensorHumid, Encoding: protocol.EncodingRaw}, 4},
		{protocol.SpikeRecord{Sensor: protocol.SensorSoil, Encoding: protocol.EncodingPopulation}, 15},
		{protocol.SpikeRecord{Sensor: protocol.SensorUnknown, Encoding: protocol.EncodingRaw}, -1},
		{protocol.SpikeRecord{Sensor: protocol.SensorTemp, Encoding: protocol.EncodingUnknown}, -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inputIndex(tt.record))
	}
}

func TestNetworkDeterminism(t *testing.T) {
	records := []protocol.SpikeRecord{
		{Sensor: protocol.SensorSoil, Timestamp: 100, Encoding: protocol.EncodingRaw, Value: 25},
		{Sensor: protocol.SensorSoil, Timestamp: 100, Encoding: protocol.EncodingTemporal, Value: -1},
		{Sensor: protocol.SensorTemp, Timestamp: 103, Encoding: protocol.EncodingRate, Value: 1},
		{Sensor: protocol.SensorHumid, Timestamp: 103, Encoding: protocol.EncodingPopulation, NeuronID: 1, Value: 69.7},
		{Sensor: protocol.SensorTDS, Timestamp: 106, Encoding: protocol.EncodingRaw, Value: 400},
		{Sensor: protocol.SensorUnknown, Timestamp: 109, Encoding: protocol.EncodingRaw, Value: 1},
	}

	a := NewNetwork(42)
	b := NewNetwork(42)
	for i := 0; i < 30; i++ {
		for _, r := range records {
			a.ProcessSpike(r)
			b.ProcessSpike(r)
		}
	}

	// Bit-identical decision vectors across two independent runs.
	require.Equal(t, a.Activations(), b.Activations())
	assert.Equal(t, a.SpikeCount(), b.SpikeCount())

	c := NewNetwork(43)
	assert.NotEqual(t, a.inputLayer.Weight(0, 0), c.inputLayer.Weight(0, 0),
		"different seed, different initial weights")
}

func TestProcessSpikeAdvancesOnUnknown(t *testing.T) {
	n := NewNetwork(1)
	n.ProcessSpike(protocol.SpikeRecord{Sensor: protocol.SensorUnknown, Value: 1})
	assert.Equal(t, 1, n.SpikeCount(), "unknown records still drive a zero-input step")
}

func TestDecisionEMA(t *testing.T) {
	n := NewNetwork(42)
	r := protocol.SpikeRecord{Sensor: protocol.SensorSoil, Encoding: protocol.EncodingRaw, Value: 10}

	out := n.ProcessSpike(r)
	for i, d := range n.Activations() {
		assert.InDelta(t, decisionAlpha*out[i], d, 1e-12,
			"first step EMA = alpha * spike")
	}

	decisions := n.Decisions()
	require.Len(t, decisions, OutputNeurons)
	for _, label := range DecisionLabels {
		_, ok := decisions[label]
		assert.True(t, ok, "label %s present", label)
	}
}

func TestTopDecisionsOrdering(t *testing.T) {
	n := NewNetwork(1)
	n.decisions[5] = 0.9 // soil_dry
	n.decisions[0] = 0.9 // irrigation_needed, earlier label order
	n.decisions[3] = 0.5 // temperature_alert
	n.decisions[7] = 0.2 // below threshold

	top := n.TopDecisions(0.3)
	require.Len(t, top, 3)
	assert.Equal(t, "irrigation_needed", top[0].Label, "tie broken by label order")
	assert.Equal(t, "soil_dry", top[1].Label)
	assert.Equal(t, "temperature_alert", top[2].Label)

	assert.Empty(t, NewNetwork(1).TopDecisions(0.3))
}

func TestRecommendation(t *testing.T) {
	n := NewNetwork(1)
	assert.Contains(t, n.Recommendation(), "monitoring")

	n.decisions[0] = 0.8
	n.decisions[5] = 0.6
	rec := n.Recommendation()
	assert.Contains(t, rec, "irrigation recommended (confidence: 80.0%)")
	assert.Contains(t, rec, "soil moisture low (confidence: 60.0%)")
}

func TestNetworkReset(t *testing.T) {
	n := NewNetwork(42)
	for i := 0; i < 20; i++ {
		n.ProcessSpike(protocol.SpikeRecord{Sensor: protocol.SensorSoil, Encoding: protocol.EncodingRaw, Value: 10})
	}
	before := n.inputLayer.Weight(0, 0)
	n.Reset()
	assert.Zero(t, n.SpikeCount())
	assert.Equal(t, before, n.inputLayer.Weight(0, 0), "weights survive a reset")

	// The network keeps working after a reset.
	n.ProcessSpike(protocol.SpikeRecord{Sensor: protocol.SensorSoil, Encoding: protocol.EncodingRaw, Value: 10})
	assert.Equal(t, 1, n.SpikeCount())
}
