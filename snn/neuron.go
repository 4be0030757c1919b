// Package snn implements the receiver's decision aid: a small two-layer
// spiking neural network of leaky integrate-and-fire neurons with online
// spike-timing-dependent plasticity. It is a fixed decision aid, not a
// trained classifier.
package snn

// Fixed neuron dynamics, shared by every unit in the network.
const (
	neuronThreshold  = 1.0
	neuronDecay      = 0.95
	refractorySteps  = 5
	spikeHistorySize = 100
)

// Neuron is a single leaky integrate-and-fire unit. The spike-time history
// is diagnostic only; learning never reads it.
type Neuron struct {
	potential  float64
	refractory int
	spikeTimes []float64
}

// Integrate advances the neuron one step: while refractory it only counts
// down; otherwise the membrane potential leaks geometrically, accumulates
// the synaptic current and fires when it crosses the threshold, resetting
// to zero and entering the refractory period.
func (n *Neuron) Integrate(current, now float64) bool {
	if n.refractory > 0 {
		n.refractory--
		return false
	}

	n.potential = n.potential*neuronDecay + current

	if n.potential >= neuronThreshold {
		n.potential = 0
		n.refractory = refractorySteps
		if len(n.spikeTimes) >= spikeHistorySize {
			n.spikeTimes = n.spikeTimes[1:]
		}
		n.spikeTimes = append(n.spikeTimes, now)
		return true
	}
	return false
}

// Potential exposes the membrane potential for diagnostics.
func (n *Neuron) Potential() float64 { return n.potential }

// SpikeCount returns the number of remembered spikes.
func (n *Neuron) SpikeCount() int { return len(n.spikeTimes) }

// Reset clears the membrane state. The spike history is kept: it is a
// diagnostic record, not behavior.
func (n *Neuron) Reset() {
	n.potential = 0
	n.refractory = 0
}
