package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/neurofarm/agrispike/driver/nrf24"
	"github.com/neurofarm/agrispike/driver/stub"
	"github.com/neurofarm/agrispike/sensor"
	"github.com/neurofarm/agrispike/transport"
)

// NewTxCommand builds the sender-node command. The transmitter samples
// the sensors, encodes every reading four ways and pushes the records
// over the radio until interrupted.
//
// With --sim the node runs without hardware: simulated sensors into a
// loopback radio with no listener, useful for checking config and
// encoder behaviour on a desk.
func NewTxCommand(root *RootOptions) *cobra.Command {
	var sim bool

	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Run the sensor transmitter node",
		RunE: func(cmd *cobra.Command, args []string) error {
			var radio transport.Radio
			if sim {
				root.log.Info("simulation mode, no radio hardware")
				_, radio, _ = stub.NewWire()
			} else {
				hw, closer, err := openRadio(root.cfg, nrf24.RoleTransmit, root.log)
				if err != nil {
					return err
				}
				defer func() { _ = closer() }()
				radio = hw
			}

			if err := radio.Configure(); err != nil {
				return err
			}

			// Real probes hang off an external ADC this binary does not
			// speak yet, so both modes read the simulator.
			tx := transport.NewTransmitter(radio, sensor.NewSim(), root.log)
			tx.SetInterval(root.cfg.Sampling.Interval.Std())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			root.log.Info("transmitter running",
				"channel", root.cfg.Radio.Channel,
				"address", root.cfg.Radio.Address,
				"interval", root.cfg.Sampling.Interval.Std(),
			)
			err := tx.Run(ctx)
			stats := tx.Stats()
			root.log.Info("transmitter stopped",
				"sent", stats.PacketsSent,
				"failed", stats.PacketsFailed,
				"success_rate", stats.SuccessRate(),
			)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sim, "sim", false, "run without radio hardware")
	return cmd
}
