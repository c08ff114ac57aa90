// Command executoragent is the process that runs inside one executor
// container: it accepts dispatched task groups over the transport,
// simulates running them, and reports status and resource stats back
// to the scheduler on request.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/haesookim/incubator-nemo/internal/transport"
)

func main() {
	host := flag.String("host", "0.0.0.0", "listen address")
	port := flag.Int("port", 7777, "listen port")
	runDuration := flag.Duration("run-duration", 10*time.Second, "how long a dispatched task group runs before completing")
	flag.Parse()

	agent := transport.NewAgent(*runDuration)

	api := &transport.API{Address: *host, Port: *port, Agent: agent}

	log.Printf("[executoragent] listening on %s:%d", *host, *port)

	if err := api.Start(); err != nil {
		log.Fatalf("[executoragent] exited: %v", err)
	}
}
