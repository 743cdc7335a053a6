package main

import (
	"context"
	"flag"
	"log"
	"os"
	"reflect"
	"strings"

	"github.com/robotalks/referee.go/pkg/bridge/mqtt"
	"github.com/robotalks/referee.go/pkg/bridge/msgs"
	"github.com/robotalks/referee.go/pkg/config"
)

var (
	mqttURL = "mqtt://localhost:1883/referee/"
)

func init() {
	if val := os.Getenv("REFEREE_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	node := "refmon-" + config.MachineID()
	link, err := mqtt.NewLinkFromURL(mqttURL, node)
	if err != nil {
		log.Fatalln(err)
	}
	link.Subscribe("#", func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/online") {
			log.Printf("%s: %q", topic, string(payload))
			return
		}
		msg, err := msgs.DecodeEnvelope(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: [%s] %s", topic,
			reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
	})
	log.Printf("monitoring as %s", node)
	if err := link.Run(context.Background()); err != nil {
		log.Fatalln(err)
	}
}
