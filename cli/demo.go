package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/neurofarm/agrispike/control"
	"github.com/neurofarm/agrispike/driver/stub"
	"github.com/neurofarm/agrispike/sensor"
	"github.com/neurofarm/agrispike/snn"
	"github.com/neurofarm/agrispike/transport"
)

// NewDemoCommand runs a transmitter and a receiver over an in-process
// loopback link, so the whole pipeline can be exercised without any
// hardware.
func NewDemoCommand(root *RootOptions) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run tx and rx over an in-process loopback link",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, txRadio, rxRadio := stub.NewWire()
			if err := txRadio.Configure(); err != nil {
				return err
			}
			if err := rxRadio.Configure(); err != nil {
				return err
			}

			tx := transport.NewTransmitter(txRadio, sensor.NewSim(), root.log)
			tx.SetInterval(interval)

			sinks, err := buildSinks(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer func() { _ = sinks.Close() }()

			irrigation, err := control.NewController(control.NopActuator{}, root.log)
			if err != nil {
				return err
			}
			defer func() { _ = irrigation.Close() }()

			network := snn.NewNetwork(root.cfg.SNN.Seed)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go func() { _ = tx.Run(ctx) }()

			root.log.Info("demo running, Ctrl-C to stop", "interval", interval)
			return runReceiver(ctx, root, rxRadio, network, irrigation, sinks)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", time.Second, "sample interval for the loopback transmitter")
	return cmd
}
