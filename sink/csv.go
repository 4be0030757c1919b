package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/snn"
)

// CSVSink appends spikes to a CSV file in arrival order. Decisions are
// not logged here; the CSV is the raw spike trace.
type CSVSink struct {
	file *os.File
	w    *csv.Writer
}

var csvHeader = []string{"received", "sensor", "timestamp_ms", "encoding", "neuron", "value"}

// NewCSVSink opens or creates path for appending, writing the header only
// when the file is new.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open csv: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sink: stat csv: %w", err)
	}
	s := &CSVSink{file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("sink: csv header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVSink) WriteSpike(_ context.Context, r protocol.SpikeRecord, received time.Time) error {
	row := []string{
		received.UTC().Format(time.RFC3339Nano),
		r.Sensor.String(),
		strconv.FormatInt(int64(r.Timestamp), 10),
		r.Encoding.String(),
		strconv.Itoa(int(r.NeuronID)),
		strconv.FormatFloat(float64(r.Value), 'g', -1, 32),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("sink: csv write: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) WriteDecisions(context.Context, []snn.Decision, time.Time) error {
	return nil
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
