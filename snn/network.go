package snn

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/neurofarm/agrispike/protocol"
)

// Fixed topology: one input line per (sensor, encoding) pair.
const (
	InputNeurons  = protocol.NumSensors * protocol.NumEncodings // 16
	HiddenNeurons = 32
	OutputNeurons = 8

	learningRate  = 0.01
	decisionAlpha = 0.1
)

// DecisionLabels names the eight output neurons, in insertion order. The
// order is part of the contract: TopDecisions breaks activation ties by it.
var DecisionLabels = [OutputNeurons]string{
	"irrigation_needed",
	"nutrient_deficiency",
	"optimal_conditions",
	"temperature_alert",
	"humidity_alert",
	"soil_dry",
	"water_quality_low",
	"system_healthy",
}

// Decision is one named activation from the decision vector.
type Decision struct {
	Label      string
	Activation float64
}

// Network is the agricultural decision network: 16 input lines feed a
// hidden layer of 32 LIF neurons feeding 8 decision neurons. Both layers
// learn online through STDP; the decision vector is an exponential moving
// average of the output spikes.
//
// Network is not safe for concurrent use; it is owned by the consumer flow.
type Network struct {
	inputLayer  *Layer
	hiddenLayer *Layer

	decisions [OutputNeurons]float64
	step      float64
	spikes    int
}

// NewNetwork seeds the weight matrices from seed; two networks built from
// the same seed and fed the same records produce bit-identical decision
// vectors.
func NewNetwork(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	return &Network{
		inputLayer:  NewLayer(InputNeurons, HiddenNeurons, learningRate, rng),
		hiddenLayer: NewLayer(HiddenNeurons, OutputNeurons, learningRate, rng),
	}
}

// inputIndex maps a record onto its input line, or -1 for records carrying
// unknown ids. Lines are laid out sensor-major: sensor*4 + encoding.
func inputIndex(r protocol.SpikeRecord) int {
	if !r.Sensor.Known() || !r.Encoding.Known() {
		return -1
	}
	return int(r.Sensor)*protocol.NumEncodings + int(r.Encoding)
}

// ProcessSpike drives one full two-layer step from a received record: the
// record's input line is set when its value is positive, both layers run a
// forward pass followed by their STDP update, and the decision vector
// absorbs the output spikes. Records that map to no line still advance the
// network one step with an all-zero input.
func (n *Network) ProcessSpike(r protocol.SpikeRecord) []float64 {
	input := make([]float64, InputNeurons)
	if idx := inputIndex(r); idx >= 0 && r.Value > 0 {
		input[idx] = 1.0
	}

	hidden := n.inputLayer.Forward(input, n.step)
	output := n.hiddenLayer.Forward(hidden, n.step)

	n.inputLayer.STDP(input, hidden)
	n.hiddenLayer.STDP(hidden, output)

	for i := range n.decisions {
		n.decisions[i] = (1-decisionAlpha)*n.decisions[i] + decisionAlpha*output[i]
	}

	n.step++
	n.spikes++
	return output
}

// Decisions returns a read-only snapshot of the decision vector keyed by
// label.
func (n *Network) Decisions() map[string]float64 {
	out := make(map[string]float64, OutputNeurons)
	for i, label := range DecisionLabels {
		out[label] = n.decisions[i]
	}
	return out
}

// Activations returns the raw decision vector in label order.
func (n *Network) Activations() [OutputNeurons]float64 { return n.decisions }

// TopDecisions returns the decisions activated above threshold, sorted by
// activation descending with ties broken by label order, so output is
// reproducible.
func (n *Network) TopDecisions(threshold float64) []Decision {
	var active []Decision
	for i, label := range DecisionLabels {
		if n.decisions[i] > threshold {
			active = append(active, Decision{Label: label, Activation: n.decisions[i]})
		}
	}
	sort.SliceStable(active, func(a, b int) bool {
		return active[a].Activation > active[b].Activation
	})
	return active
}

// Recommendation renders the strongest decisions as human-readable advice,
// each with its activation as a confidence percentage.
func (n *Network) Recommendation() string {
	top := n.TopDecisions(0.3)
	if len(top) == 0 {
		return "System monitoring... all parameters within normal range."
	}
	if len(top) > 3 {
		top = top[:3]
	}

	advice := map[string]string{
		"irrigation_needed":   "irrigation recommended",
		"nutrient_deficiency": "check nutrient levels",
		"optimal_conditions":  "optimal growing conditions",
		"temperature_alert":   "temperature out of range",
		"humidity_alert":      "humidity adjustment needed",
		"soil_dry":            "soil moisture low",
		"water_quality_low":   "water quality check needed",
		"system_healthy":      "system healthy",
	}

	out := ""
	for i, d := range top {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s (confidence: %.1f%%)", advice[d.Label], d.Activation*100)
	}
	return out
}

// SpikeCount returns how many records the network has processed.
func (n *Network) SpikeCount() int { return n.spikes }

// Reset clears all membrane state and the step counter. Weights persist.
func (n *Network) Reset() {
	n.inputLayer.Reset()
	n.hiddenLayer.Reset()
	n.step = 0
	n.spikes = 0
}
