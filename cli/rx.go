package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurofarm/agrispike/control"
	"github.com/neurofarm/agrispike/driver/nrf24"
	"github.com/neurofarm/agrispike/driver/stub"
	"github.com/neurofarm/agrispike/protocol"
	"github.com/neurofarm/agrispike/sink"
	"github.com/neurofarm/agrispike/snn"
	"github.com/neurofarm/agrispike/transport"
)

const drainInterval = 50 * time.Millisecond

// NewRxCommand builds the receiver-node command: dispatcher feeding the
// decision network, the irrigation controller and the configured sinks.
func NewRxCommand(root *RootOptions) *cobra.Command {
	var sim bool

	cmd := &cobra.Command{
		Use:   "rx",
		Short: "Run the receiver and decision node",
		RunE: func(cmd *cobra.Command, args []string) error {
			var radio transport.Radio
			var actuator control.Actuator = control.NopActuator{}
			if sim {
				root.log.Info("simulation mode, no radio hardware")
				_, _, radio = stub.NewWire()
			} else {
				hw, closer, err := openRadio(root.cfg, nrf24.RoleReceive, root.log)
				if err != nil {
					return err
				}
				defer func() { _ = closer() }()
				radio = hw

				pin, err := pinByName(root.cfg.Relay.Pin)
				if err != nil {
					return err
				}
				actuator, err = control.NewPinActuator(pin, root.cfg.Relay.ActiveLow)
				if err != nil {
					return err
				}
			}

			if err := radio.Configure(); err != nil {
				return err
			}

			sinks, err := buildSinks(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer func() { _ = sinks.Close() }()

			irrigation, err := control.NewController(actuator, root.log)
			if err != nil {
				return err
			}
			defer func() { _ = irrigation.Close() }()

			network := snn.NewNetwork(root.cfg.SNN.Seed)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runReceiver(ctx, root, radio, network, irrigation, sinks)
		},
	}

	cmd.Flags().BoolVar(&sim, "sim", false, "run without radio hardware")
	return cmd
}

// runReceiver owns the consumer loop: drain the dispatcher queue, feed
// every record to the network and the sinks, and let raw soil readings
// drive irrigation. A fatal dispatcher error aborts the run.
func runReceiver(
	ctx context.Context,
	root *RootOptions,
	radio transport.Radio,
	network *snn.Network,
	irrigation *control.Controller,
	sinks sink.Multi,
) error {
	d := transport.NewDispatcher(radio, root.log)
	if err := d.Start(); err != nil {
		return err
	}
	defer func() { _ = d.Stop() }()

	metrics := transport.NewSpikeMetrics(time.Second)

	root.log.Info("receiver running",
		"channel", root.cfg.Radio.Channel,
		"address", root.cfg.Radio.Address,
	)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	for {
		select {
		case <-ctx.Done():
			stats := d.Stats()
			root.log.Info("receiver stopped",
				"received", stats.PacketsReceived,
				"parse_errors", stats.ParseErrors,
				"dropped", stats.QueueDropped,
				"spikes_processed", network.SpikeCount(),
			)
			return nil

		case err := <-d.Err():
			return fmt.Errorf("radio link lost: %w", err)

		case <-report.C:
			root.log.Info("network status",
				"spike_rate_hz", metrics.TotalRate(),
				"spikes", network.SpikeCount(),
				"recommendation", network.Recommendation(),
				"irrigation_active", irrigation.Status().Active,
			)

		case <-ticker.C:
			for _, ev := range d.Events() {
				record := ev.Record
				metrics.Add(record)
				if err := sinks.WriteSpike(ctx, record, ev.Received); err != nil {
					root.log.Warn("sink write failed", "err", err)
				}

				network.ProcessSpike(record)
				if decs := network.TopDecisions(0.3); len(decs) > 0 {
					if err := sinks.WriteDecisions(ctx, decs, ev.Received); err != nil {
						root.log.Warn("sink write failed", "err", err)
					}
				}

				if record.Sensor == protocol.SensorSoil && record.Encoding == protocol.EncodingRaw {
					changed, err := irrigation.Update(record.Value)
					if err != nil {
						root.log.Error("irrigation actuation failed", "err", err)
					} else if changed {
						root.log.Info("irrigation state changed",
							"active", irrigation.Status().Active,
							"soil_moisture", record.Value,
						)
					}
				}
			}
		}
	}
}

func buildSinks(ctx context.Context, root *RootOptions) (sink.Multi, error) {
	var sinks sink.Multi

	if path := root.cfg.Sinks.CSVPath; path != "" {
		s, err := sink.NewCSVSink(path)
		if err != nil {
			return nil, err
		}
		root.log.Info("logging spikes to csv", "path", path)
		sinks = append(sinks, s)
	}
	if path := root.cfg.Sinks.SQLitePath; path != "" {
		store := sink.NewSQLiteStore(path)
		if err := store.Init(ctx); err != nil {
			_ = sinks.Close()
			return nil, err
		}
		root.log.Info("logging spikes to sqlite", "path", path, "session", store.Session())
		sinks = append(sinks, store)
	}
	if url := root.cfg.Sinks.Influx.URL; url != "" {
		s, err := sink.NewInfluxSink(sink.InfluxOptions{
			URL:    url,
			Token:  root.cfg.Sinks.Influx.Token,
			Org:    root.cfg.Sinks.Influx.Org,
			Bucket: root.cfg.Sinks.Influx.Bucket,
		})
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		root.log.Info("forwarding to influxdb", "url", url)
		sinks = append(sinks, s)
	}
	return sinks, nil
}
