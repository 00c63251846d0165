// strum-tail prints live events from a running strumcount dashboard.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-strum/pkg/hub"
	"github.com/teslashibe/go-strum/pkg/practice"
	"github.com/teslashibe/go-strum/pkg/web"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws/events", "Dashboard event stream")
	beats := flag.Bool("beats", false, "Also print metronome beats")
	raw := flag.Bool("raw", false, "Print events as raw JSON")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := web.DialEvents(ctx, *url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	go func() {
		<-ctx.Done()
		client.Close()
	}()

	fmt.Printf("📡 Listening on %s (Ctrl+C to exit)\n", *url)
	for {
		ev, err := client.Next(0)
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "❌ %v\n", err)
				os.Exit(1)
			}
			return
		}
		if ev.Type == hub.EventBeat && !*beats {
			continue
		}
		if *raw {
			data, _ := json.Marshal(ev)
			fmt.Println(string(data))
			continue
		}
		printEvent(ev)
	}
}

func printEvent(ev hub.RawEvent) {
	ts := ev.Time.Format("15:04:05.000")
	switch ev.Type {
	case hub.EventStrum:
		var s practice.Strum
		if json.Unmarshal(ev.Data, &s) == nil {
			fmt.Printf("%s 🎸 %d (score %.1f)\n", ts, s.Count, s.Event.Score)
			return
		}
	case hub.EventMilestone:
		var m practice.Milestone
		if json.Unmarshal(ev.Data, &m) == nil {
			fmt.Printf("%s 🏆 %d! (announced: %v)\n", ts, m.Count, m.Announced)
			return
		}
	case hub.EventState:
		var st practice.Status
		if json.Unmarshal(ev.Data, &st) == nil {
			fmt.Printf("%s ● %s count=%d bpm=%d\n", ts, st.State, st.Count, st.BPM)
			return
		}
	}
	fmt.Printf("%s %s %s\n", ts, ev.Type, string(ev.Data))
}
