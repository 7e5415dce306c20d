// ABOUTME: Stop command
// ABOUTME: Sends the halt command to a running player's control socket
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/chunkstream/internal/control"
	"github.com/Resonate-Protocol/chunkstream/internal/discovery"
	"github.com/spf13/cobra"
)

var (
	stopAddr     string
	stopDiscover bool
	stopTimeout  time.Duration
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running player",
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := stopTargets()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), stopTimeout)
		defer cancel()

		out := cmd.OutOrStdout()
		for _, addr := range addrs {
			fmt.Fprintf(out, "Stop player at %s...\n", addr)
			resp, err := control.SendCommand(ctx, addr, control.HaltCommand)
			if err != nil {
				return fmt.Errorf("unable to stop player at %s: %w", addr, err)
			}
			fmt.Fprintln(out, resp.Reply.Text)
			if st := resp.Status; st != nil {
				fmt.Fprintf(out, "Player %s, buffer %d/%d\n", st.State, st.Occupied, st.Capacity)
			}
		}
		fmt.Fprintln(out, "Done")
		return nil
	},
}

func init() {
	stopCmd.Flags().StringVar(&stopAddr, "addr", "", "Control address of the player (host:port)")
	stopCmd.Flags().BoolVar(&stopDiscover, "discover", false, "Find players via mDNS and stop all of them")
	stopCmd.Flags().DurationVar(&stopTimeout, "timeout", 5*time.Second, "Discovery and request timeout")
}

func stopTargets() ([]string, error) {
	if stopAddr != "" {
		return []string{stopAddr}, nil
	}
	if !stopDiscover {
		if addr := cfg.ControlAddr(); addr != "" {
			return []string{addr}, nil
		}
		return nil, fmt.Errorf("no player address: use --addr or --discover")
	}

	players, err := discovery.Discover(stopTimeout)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("no players found after %s", stopTimeout)
	}

	addrs := make([]string, 0, len(players))
	for _, p := range players {
		addrs = append(addrs, p.Addr())
	}
	return addrs, nil
}
