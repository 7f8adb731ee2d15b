// client-test fires login requests at a running logingate instance and
// reports how the outcomes distribute. Handy for smoke-testing a deployment
// and for generating a bit of load.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
)

func main() {
	target := flag.String("target", "http://localhost:3091/", "login endpoint URL")
	user := flag.String("user", "admin", "userid to submit")
	password := flag.String("password", "tobira", "password to submit")
	count := flag.Int("n", 100, "number of requests")
	workers := flag.Int("c", 4, "concurrent workers")
	flag.Parse()

	form := url.Values{
		"userid":   {*user},
		"password": {*password},
	}.Encode()

	var accepted, rejected, other atomic.Int64

	client := &http.Client{Timeout: 10 * time.Second}
	jobs := make(chan int)

	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				status, err := post(client, *target, form)
				if err != nil {
					log.Println(err)
					other.Add(1)
					continue
				}
				switch status {
				case http.StatusNoContent:
					accepted.Add(1)
				case http.StatusForbidden:
					rejected.Add(1)
				default:
					other.Add(1)
				}
			}
		}()
	}

	for i := 0; i < *count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("%d requests in %v (%.1f req/s)\n", *count, elapsed.Round(time.Millisecond), float64(*count)/elapsed.Seconds())
	fmt.Printf("accepted: %d, rejected: %d, other: %d\n", accepted.Load(), rejected.Load(), other.Load())
}

func post(client *http.Client, target, form string) (int, error) {
	req, err := http.NewRequest(http.MethodPost, target, strings.NewReader(form))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// One id per request, for correlating with server-side logs.
	req.Header.Set("x-request-id", xid.New().String())

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()

	return resp.StatusCode, nil
}
