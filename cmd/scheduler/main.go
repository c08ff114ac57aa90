// Command scheduler composes the scheduling policy core with its
// collaborators into a running process: a ContainerManager backed by
// Docker, a round-robin SchedulingPolicy, a BatchScheduler driving it
// against the dispatch transport, an audit log, and a read-only debug
// HTTP surface.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/haesookim/incubator-nemo/internal/audit"
	"github.com/haesookim/incubator-nemo/internal/batchscheduler"
	"github.com/haesookim/incubator-nemo/internal/config"
	"github.com/haesookim/incubator-nemo/internal/containermgr"
	"github.com/haesookim/incubator-nemo/internal/containertype"
	"github.com/haesookim/incubator-nemo/internal/debugapi"
	"github.com/haesookim/incubator-nemo/internal/executor"
	"github.com/haesookim/incubator-nemo/internal/scheduler"
	"github.com/haesookim/incubator-nemo/internal/transport"
)

func main() {
	noDocker := flag.Bool("no-docker", false, "skip connecting to the Docker daemon (executors must already be running)")
	flag.Parse()

	cfg := config.FromEnv(config.Default())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditStore, err := audit.NewBoltStore(cfg.AuditLogPath, 0600, "dispatches")
	if err != nil {
		log.Fatalf("[scheduler] opening audit store: %v", err)
	}

	var docker *containermgr.DockerClient
	if !*noDocker {
		docker, err = containermgr.NewDockerClient()
		if err != nil {
			log.Fatalf("[scheduler] connecting to docker: %v", err)
		}
	}

	images := map[containertype.ContainerType]string{
		containertype.Transient: "nemo/executor-transient:latest",
		containertype.Reserved:  "nemo/executor-reserved:latest",
		containertype.Compute:   "nemo/executor-compute:latest",
		containertype.Storage:   "nemo/executor-storage:latest",
	}

	mgr := containermgr.NewManager(docker, images)

	policy := scheduler.NewRoundRobin(mgr, cfg.ScheduleTimeout())
	mgr.SetListener(policy)

	bs := batchscheduler.New(policy, mgr, transport.NewHTTPClient(), auditStore)

	dbg := &debugapi.API{Address: cfg.DebugServerAddr, Locator: mgr, Pending: bs}
	go func() {
		if err := dbg.Start(); err != nil {
			log.Printf("[scheduler] debug API exited: %v", err)
		}
	}()

	go bs.Run(ctx, cfg.DispatchRetryBackoff)

	go reconcileLoop(ctx, mgr, bs, cfg.DispatchRetryBackoff)

	log.Printf("[scheduler] running, debug surface on %s", cfg.DebugServerAddr)

	<-ctx.Done()

	log.Printf("[scheduler] shutting down")
}

// reconcileLoop periodically polls every known executor for completed
// or failed task groups and its latest resource snapshot, feeding the
// former back into the policy and the latter into the ContainerManager
// for operator visibility (see executor.CollectStats / ReportStats).
func reconcileLoop(ctx context.Context, mgr *containermgr.Manager, bs *batchscheduler.BatchScheduler, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for id, rep := range mgr.GetExecutorRepresenterMap() {
				exec, ok := rep.(*executor.Executor)
				if !ok || exec.Address == "" {
					continue
				}
				bs.Reconcile(id, exec.Address)

				stats, err := bs.Transport.GetStats(exec.Address)
				if err != nil {
					log.Printf("[scheduler] error fetching stats from executor %s: %v", id, err)
					continue
				}
				mgr.ReportStats(id, stats)
			}
		}
	}
}
