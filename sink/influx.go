package sink

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/snn"
)

// InfluxSink forwards spikes and decision snapshots to InfluxDB for
// dashboarding. Writes are blocking so a failed push surfaces to the
// caller instead of vanishing in a batch queue.
type InfluxSink struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
}

type InfluxOptions struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

func NewInfluxSink(opts InfluxOptions) (*InfluxSink, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("sink: influx url is required")
	}
	client := influxdb2.NewClient(opts.URL, opts.Token)
	return &InfluxSink{
		client: client,
		write:  client.WriteAPIBlocking(opts.Org, opts.Bucket),
	}, nil
}

func (s *InfluxSink) WriteSpike(ctx context.Context, r protocol.SpikeRecord, received time.Time) error {
	p := influxdb2.NewPoint(
		"spike",
		map[string]string{
			"sensor":   r.Sensor.String(),
			"encoding": r.Encoding.String(),
			"neuron":   strconv.Itoa(int(r.NeuronID)),
		},
		map[string]interface{}{
			"value":        float64(r.Value),
			"timestamp_ms": int64(r.Timestamp),
		},
		received,
	)
	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("sink: influx spike: %w", err)
	}
	return nil
}

func (s *InfluxSink) WriteDecisions(ctx context.Context, decs []snn.Decision, received time.Time) error {
	fields := make(map[string]interface{}, len(decs))
	for _, d := range decs {
		fields[d.Label] = d.Activation
	}
	p := influxdb2.NewPoint("decision", nil, fields, received)
	if err := s.write.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("sink: influx decisions: %w", err)
	}
	return nil
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}
