package snn

import "math/rand"

const (
	traceDecay      = 0.9
	depressionRatio = 0.5
	weightLimit     = 1.0
)

// Layer is a fully connected bank of LIF neurons with STDP learning. The
// weight matrix is owned exclusively by the layer and mutated only by its
// own STDP update.
type Layer struct {
	nIn, nOut    int
	learningRate float64

	neurons []Neuron
	// weights[i*nOut+j] connects input line i to neuron j.
	weights []float64

	preTrace  []float64
	postTrace []float64
}

// NewLayer builds a layer with Gaussian-initialized weights (scale 0.1,
// clamped to the weight limit) drawn from rng, so a fixed seed yields a
// bit-identical network.
func NewLayer(nIn, nOut int, learningRate float64, rng *rand.Rand) *Layer {
	l := &Layer{
		nIn:          nIn,
		nOut:         nOut,
		learningRate: learningRate,
		neurons:      make([]Neuron, nOut),
		weights:      make([]float64, nIn*nOut),
		preTrace:     make([]float64, nIn),
		postTrace:    make([]float64, nOut),
	}
	for i := range l.weights {
		l.weights[i] = clamp(rng.NormFloat64() * 0.1)
	}
	return l
}

// Forward propagates one binary spike vector: the synaptic current of each
// neuron is the input vector times its weight column, and every neuron
// integrates its current independently. Returns the binary output vector.
func (l *Layer) Forward(input []float64, now float64) []float64 {
	output := make([]float64, l.nOut)

	// currents = input · W, accumulated row-wise so the inner loop walks
	// the weight slice sequentially.
	currents := make([]float64, l.nOut)
	for i, in := range input {
		if in == 0 {
			continue
		}
		row := l.weights[i*l.nOut : (i+1)*l.nOut]
		for j, w := range row {
			currents[j] += in * w
		}
	}

	for j := range l.neurons {
		if l.neurons[j].Integrate(currents[j], now) {
			output[j] = 1.0
		}
	}
	return output
}

// STDP applies one plasticity update from a forward pass. Traces decay
// first and absorb the new spikes; potentiation and depression then both
// read that captured trace state, so neither sees the other's increments.
// Weights are clamped to [-weightLimit, weightLimit].
func (l *Layer) STDP(input, output []float64) {
	for i := range l.preTrace {
		l.preTrace[i] = l.preTrace[i]*traceDecay + input[i]
	}
	for j := range l.postTrace {
		l.postTrace[j] = l.postTrace[j]*traceDecay + output[j]
	}

	// Potentiation: every fired output column gains lr·preTrace[i].
	for i := 0; i < l.nIn; i++ {
		if l.preTrace[i] == 0 {
			continue
		}
		delta := l.learningRate * l.preTrace[i]
		row := l.weights[i*l.nOut : (i+1)*l.nOut]
		for j := range row {
			if output[j] > 0 {
				row[j] += delta
			}
		}
	}

	// Depression: every fired input row loses ratio·lr·postTrace[j].
	for i := 0; i < l.nIn; i++ {
		if input[i] == 0 {
			continue
		}
		row := l.weights[i*l.nOut : (i+1)*l.nOut]
		for j := range row {
			row[j] -= depressionRatio * l.learningRate * l.postTrace[j]
		}
	}

	for i := range l.weights {
		l.weights[i] = clamp(l.weights[i])
	}
}

// Reset clears every neuron's membrane state. Weights and traces persist;
// learned structure survives a reset.
func (l *Layer) Reset() {
	for i := range l.neurons {
		l.neurons[i].Reset()
	}
}

// Weight returns W[i][j] for tests and diagnostics.
func (l *Layer) Weight(i, j int) float64 { return l.weights[i*l.nOut+j] }

func clamp(w float64) float64 {
	if w > weightLimit {
		return weightLimit
	}
	if w < -weightLimit {
		return -weightLimit
	}
	return w
}
