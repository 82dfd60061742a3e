// relayc reads or writes the relay coil directly over modbus TCP, for
// bench testing a relay board without running the controller.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/goburrow/modbus"
	"github.com/lysa-se/controller/pkg/modbusclient"
)

func main() {
	address := flag.String("addr", "", "tcp modbus address")
	coil := flag.Int("coil", 0, "coil address")
	slaveID := flag.Int("slave", 0, "modbus slave id")
	on := flag.Bool("on", false, "energize the coil")
	off := flag.Bool("off", false, "de-energize the coil")
	flag.Parse()

	handler := modbus.NewTCPClientHandler(*address)
	handler.SlaveId = byte(*slaveID)
	defer handler.Close()
	client := modbusclient.New(modbus.NewClient(handler), handler.Close)

	if *on || *off {
		_, err := client.WriteSingleCoil(uint16(*coil), modbusclient.CoilValue(*on))
		if err != nil {
			log.Fatal("error was: ", err)
		}
	}

	state, err := client.ReadCoil(uint16(*coil))
	if err != nil {
		log.Fatal("error was: ", err)
	}
	fmt.Printf("coil %d: %v\n", *coil, state)
}
