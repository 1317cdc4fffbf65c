package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/mosaicnetworks/murmur/src/broadcast"
	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/net"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

//NewSimulateCmd returns the command that runs a broadcast cluster in memory
func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "simulate",
		Short:   "Run an in-memory broadcast cluster and report convergence",
		PreRunE: loadSimulateConfig,
		RunE:    runSimulation,
	}
	AddNodeFlags(cmd)
	AddSimulateFlags(cmd)
	return cmd
}

//AddSimulateFlags adds the flags of the simulate command
func AddSimulateFlags(cmd *cobra.Command) {
	cmd.Flags().Int("nodes", _config.Nodes, "Number of nodes")
	cmd.Flags().String("topology", _config.Topology, "line, ring, grid, total, tree2, tree3 or tree4")
	cmd.Flags().Float64("drop-rate", _config.DropRate, "Probability that a message between nodes is lost")
	cmd.Flags().Int64("seed", _config.Seed, "Seed of the message loss")
	cmd.Flags().Int("values", _config.Values, "Number of values to broadcast")
	cmd.Flags().Duration("timeout", _config.Timeout, "Give up if the cluster has not converged by then")
	cmd.Flags().Int("inbox-size", _config.InboxSize, "Lines that can wait for a node before more are dropped")
}

func loadSimulateConfig(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd, args); err != nil {
		return err
	}

	if _config.Nodes < 1 {
		return fmt.Errorf("nodes must be at least 1, got %d", _config.Nodes)
	}
	if _config.DropRate < 0 || _config.DropRate >= 1 {
		return fmt.Errorf("drop-rate must be in [0,1), got %v", _config.DropRate)
	}

	_config.Murmur.Logger().WithFields(logrus.Fields{
		"Nodes":     _config.Nodes,
		"Topology":  _config.Topology,
		"DropRate":  _config.DropRate,
		"Seed":      _config.Seed,
		"Values":    _config.Values,
		"Timeout":   _config.Timeout,
		"InboxSize": _config.InboxSize,
	}).Debug("SIMULATE")

	return nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := _config.Murmur.Logger()

	ids := net.NodeIDs(_config.Nodes)
	topology, err := net.BuildTopology(_config.Topology, ids)
	if err != nil {
		return err
	}

	netConf := &net.Config{
		DropRate:  _config.DropRate,
		Seed:      _config.Seed,
		InboxSize: _config.InboxSize,
		Logger:    logger,
	}

	network := net.NewInmemNetwork(ids, broadcast.New, _config.Murmur.NodeConfig(), netConf)

	if _config.Murmur.ServiceAddr != "" {
		nodes := make(map[string]*node.Node, len(ids))
		for _, id := range ids {
			nodes[id] = network.Node(id)
		}
		srv, err := startService(nodes)
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	network.Start()

	ctx, cancel := context.WithTimeout(context.Background(), _config.Timeout)
	defer cancel()

	result, simErr := simulate(ctx, network, topology, _config.Values)

	if errs := network.Stop(); len(errs) > 0 {
		for id, e := range errs {
			logger.WithError(e).WithField("node", id).Error("Node failed")
		}
		if simErr == nil {
			simErr = fmt.Errorf("%d nodes failed", len(errs))
		}
	}

	report(cmd.OutOrStdout(), network, result)

	return simErr
}

type simulation struct {
	values    int
	converged bool
	elapsed   time.Duration
}

func simulate(ctx context.Context, network *net.InmemNetwork, topology map[string][]string, count int) (simulation, error) {
	res := simulation{values: count}

	if err := network.Init(ctx); err != nil {
		return res, err
	}
	if err := network.Topology(ctx, topology); err != nil {
		return res, err
	}

	ids := network.IDs()
	start := time.Now()

	for v := 0; v < count; v++ {
		if _, err := network.RPC(ctx, ids[v%len(ids)], message.Broadcast{Message: v}); err != nil {
			return res, err
		}
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		done, err := allHold(ctx, network, count)
		if err != nil {
			return res, err
		}
		if done {
			res.converged = true
			res.elapsed = time.Since(start)
			return res, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			res.elapsed = time.Since(start)
			return res, fmt.Errorf("cluster did not converge: %w", ctx.Err())
		}
	}
}

// allHold reports whether every node reads exactly the values 0..count-1.
func allHold(ctx context.Context, network *net.InmemNetwork, count int) (bool, error) {
	for _, id := range network.IDs() {
		reply, err := network.RPC(ctx, id, message.Read{})
		if err != nil {
			return false, err
		}

		ok, isReadOk := reply.Body.Payload.(message.ReadOk)
		if !isReadOk {
			return false, fmt.Errorf("read %s: unexpected %s", id, reply.Type())
		}
		if len(ok.Messages) != count {
			return false, nil
		}
	}
	return true, nil
}

func report(w io.Writer, network *net.InmemNetwork, res simulation) {
	if res.converged {
		fmt.Fprintf(w, "converged: %d values in %s\n", res.values, res.elapsed.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "not converged after %s\n", res.elapsed.Round(time.Millisecond))
	}

	netStats := network.GetStats()
	fmt.Fprintf(w, "network: delivered=%d dropped=%d\n\n", netStats["delivered"], netStats["dropped"])

	ids := network.IDs()
	sort.Strings(ids)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tVALUES\tNEIGHBORS\tRECEIVED\tSENT\tGOSSIP\tSWEEPS")
	for _, id := range ids {
		s := network.Node(id).GetStats()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id,
			s["values_known"],
			s["neighbors"],
			s["messages_received"],
			s["messages_sent"],
			s["gossip_sent"],
			s["sweeps"],
		)
	}
	tw.Flush()
}
