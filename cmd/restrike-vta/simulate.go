package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
)

var (
	simulateTarget   string
	simulateInterval time.Duration
	simulateRounds   int
)

// boutScript is one scripted exchange: the clock starts, both athletes score
// and register hits, a challenge and a warning come in, and the match ends.
var boutScript = []string{
	"clk;2:00;start;",
	"pt1;1;",
	"hl1;62;",
	"sc1;1;",
	"pt2;3;",
	"hl2;71;",
	"sc2;3;",
	"wg1;1;",
	"ch1;accepted;",
	"pt1;3;",
	"sc1;4;",
	"ij0;0:45;",
	"clk;0:00;stop;",
	"brk;0:59;",
	"wrd;1;",
	"wmh;HONG;PTF;",
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Send a scripted bout of PSS datagrams to a running service",
	Long: `Simulate replays a scripted taekwondo bout as PSS datagrams against a
running service, exercising the full pipeline without a scoring console.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateTarget, "target", "127.0.0.1:6000", "host:port of the UDP listener")
	simulateCmd.Flags().DurationVar(&simulateInterval, "interval", 200*time.Millisecond, "delay between datagrams")
	simulateCmd.Flags().IntVar(&simulateRounds, "rounds", 1, "number of times to replay the script")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	addr, err := net.ResolveUDPAddr("udp", simulateTarget)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", simulateTarget, err)
	}

	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", simulateTarget, err)
	}
	defer conn.Close()

	out := cmd.OutOrStdout()
	sent := 0
	for round := 0; round < simulateRounds; round++ {
		for _, datagram := range boutScript {
			if _, err := conn.Write([]byte(datagram)); err != nil {
				return fmt.Errorf("failed to send datagram: %w", err)
			}
			fmt.Fprintf(out, "sent %s\n", datagram)
			sent++
			time.Sleep(simulateInterval)
		}
	}

	fmt.Fprintf(out, "%d datagrams sent to %s\n", sent, simulateTarget)
	return nil
}
