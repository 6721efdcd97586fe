package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/dshot.go/pkg/monitor"
	"github.com/robotalks/dshot.go/pkg/motor"
)

var (
	mqttURL = "mqtt://localhost:1883/bench/"
)

func init() {
	if val := os.Getenv("BENCH_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := monitor.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("motor/#", monitor.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/alarm") {
			log.Printf("%s: ALARM %s", topic, string(payload))
			return
		}
		var h motor.Health
		if err := json.Unmarshal(payload, &h); err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		log.Printf("%s: [%s] throttle=%d erpm=%d discarded=%d overruns=%d",
			topic, h.State, h.Throttle, h.ERPM, h.FramesDiscarded, h.Overruns)
	}))
	<-(chan struct{})(nil)
}
