package executor

import (
	"log"

	"github.com/c9s/goprocinfo/linux"
)

// Stats is the resource snapshot an executor reports on heartbeat.
// ContainerManager attaches the latest snapshot to the Executor for
// operator visibility; the scheduling policy never reads it.
type Stats struct {
	Memory *linux.MemInfo

	Load *linux.LoadAvg

	TaskCount int
}

// CollectStats samples the local /proc filesystem. It runs inside the
// executor process and is shipped to ContainerManager on heartbeat.
func CollectStats() *Stats {
	return &Stats{
		Memory: readMemInfo(),
		Load:   readLoadAvg(),
	}
}

func (s *Stats) UsedMemoryKB() uint64 {
	if s.Memory == nil {
		return 0
	}
	return s.Memory.MemTotal - s.Memory.MemAvailable
}

func readMemInfo() *linux.MemInfo {
	memstats, err := linux.ReadMemInfo("/proc/meminfo")
	if err != nil {
		log.Printf("error reading /proc/meminfo: %v", err)
		return &linux.MemInfo{}
	}
	return memstats
}

func readLoadAvg() *linux.LoadAvg {
	loadavg, err := linux.ReadLoadAvg("/proc/loadavg")
	if err != nil {
		log.Printf("error reading /proc/loadavg: %v", err)
		return &linux.LoadAvg{}
	}
	return loadavg
}
