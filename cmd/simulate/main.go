// Command simulate drives synthetic landing-page, redirect, and banner
// traffic against a running linkgate gateway for local load testing.
// Grounded on the teacher's tools/traffic_simulator/main.go: fixed pools of
// realistic User-Agent strings and source IPs, a bounded worker pool of
// goroutines issuing a fixed total of requests as fast as the workers
// allow (no rate pacing), and periodic stats printing via atomic counters.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	server      string
	slugsCSV    string
	totalReq    int
	concurrency int
	clickRate   float64
	botRate     float64
)

var userAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 12; Pixel 6 Pro) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.5735.196 Mobile Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_3_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.1 Safari/605.1.15",
}

var botUserAgents = []string{
	"facebookexternalhit/1.1",
	"Twitterbot/1.0",
	"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	"Mediapartners-Google",
}

var sourceIPs = []string{
	"123.21.0.1", "203.0.113.5", "198.51.100.7", "14.161.0.12",
}

const statsInterval = 5 * time.Second

var (
	countSent    uint64
	countSuccess uint64
	countErrors  uint64
	countClicks  uint64
)

func main() {
	flag.StringVar(&server, "server", "http://localhost:3001", "landing listener base URL")
	flag.StringVar(&slugsCSV, "slugs", "flash50", "comma-separated slugs to request")
	flag.IntVar(&totalReq, "requests", 500, "total landing requests to send")
	flag.IntVar(&concurrency, "concurrency", 10, "concurrent workers")
	flag.Float64Var(&clickRate, "click-rate", 0.1, "probability of following up with /go/:slug")
	flag.Float64Var(&botRate, "bot-rate", 0.1, "probability of using a bot User-Agent")
	flag.Parse()

	slugs := splitCSV(slugsCSV)
	client := &http.Client{Timeout: 5 * time.Second}

	var wg sync.WaitGroup
	jobs := make(chan int, totalReq)
	for i := 0; i < totalReq; i++ {
		jobs <- i
	}
	close(jobs)

	stop := make(chan struct{})
	go printStats(stop)

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for range jobs {
				simulateOne(client, r, slugs)
			}
		}(w)
	}

	wg.Wait()
	close(stop)

	fmt.Printf("done: sent=%d success=%d errors=%d clicks=%d\n",
		atomic.LoadUint64(&countSent), atomic.LoadUint64(&countSuccess),
		atomic.LoadUint64(&countErrors), atomic.LoadUint64(&countClicks))
}

func simulateOne(client *http.Client, r *rand.Rand, slugs []string) {
	slug := slugs[r.Intn(len(slugs))]
	ua := userAgents[r.Intn(len(userAgents))]
	if r.Float64() < botRate {
		ua = botUserAgents[r.Intn(len(botUserAgents))]
	}
	ip := sourceIPs[r.Intn(len(sourceIPs))]

	atomic.AddUint64(&countSent, 1)
	req, err := http.NewRequest(http.MethodGet, server+"/"+slug, nil)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		return
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("X-Forwarded-For", ip)

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddUint64(&countErrors, 1)
		return
	}
	_ = resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		atomic.AddUint64(&countSuccess, 1)
	} else {
		atomic.AddUint64(&countErrors, 1)
	}

	if r.Float64() < clickRate {
		clickReq, err := http.NewRequest(http.MethodGet, server+"/go/"+slug, nil)
		if err == nil {
			clickReq.Header.Set("User-Agent", ua)
			clickReq.Header.Set("X-Forwarded-For", ip)
			noRedirectClient := &http.Client{
				Timeout: 5 * time.Second,
				CheckRedirect: func(*http.Request, []*http.Request) error {
					return http.ErrUseLastResponse
				},
			}
			if clickResp, err := noRedirectClient.Do(clickReq); err == nil {
				_ = clickResp.Body.Close()
				atomic.AddUint64(&countClicks, 1)
			}
		}
	}
}

func printStats(stop <-chan struct{}) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Printf("sent=%d success=%d errors=%d clicks=%d\n",
				atomic.LoadUint64(&countSent), atomic.LoadUint64(&countSuccess),
				atomic.LoadUint64(&countErrors), atomic.LoadUint64(&countClicks))
		case <-stop:
			return
		}
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return []string{"flash50"}
	}
	return out
}
