// ntpc queries the configured time source once and prints the decoded
// epoch, for checking a site's NTP reachability before installing.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/lysa-se/controller/pkg/clock"
	"github.com/lysa-se/controller/pkg/ntp"
)

func main() {
	server := flag.String("server", "0.pool.ntp.org:123", "ntp server address")
	timeout := flag.Duration("timeout", 5*time.Second, "reply deadline")
	flag.Parse()

	c := ntp.New(*server)
	c.Timeout = *timeout

	epoch, err := c.Epoch(context.Background())
	if err != nil {
		log.Fatal("error was: ", err)
	}

	hour, minute := clock.UTC(epoch)
	fmt.Printf("epoch: %d\n", epoch)
	fmt.Printf("utc:   %02d:%02d (%s)\n", hour, minute, clock.Format12(hour, minute))
	fmt.Printf("time:  %s\n", time.Unix(epoch, 0).UTC().Format(time.RFC3339))
}
