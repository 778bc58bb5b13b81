// Package booking is a resilient client for a rate-limited hotel
// booking supplier. It sits between a high-traffic customer surface and
// the supplier API and keeps load inside the supplier's budget while
// giving revenue-bearing work precedence.
//
// Every call passes through the same pipeline: adaptive rate limiting,
// priority scheduling with preemption of queued lower-priority work,
// a per-service circuit breaker, and retries with jittered exponential
// backoff. Searches can be answered from a short-lived availability
// cache without spending supplier budget; bookings always reach the
// supplier and require an idempotency key so a retried confirmation is
// deduplicable downstream.
//
// A minimal client needs only an endpoint and a key:
//
//	client, err := booking.NewClient(booking.ClientConfig{
//		BaseURL: "https://api.supplier.example",
//		APIKey:  os.Getenv("SUPPLIER_API_KEY"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Search(ctx, &booking.SearchRequest{
//		HotelIDs: []string{"HTL-1"},
//		CheckIn:  "2026-09-01",
//		CheckOut: "2026-09-03",
//		Guests:   2,
//	})
//
// Operational levers are available at runtime: SetSystemHealth scales
// the admission rate with downstream health, Pause and Resume gate
// admission during incidents, UpdateConfig swaps configuration without
// dropping in-flight requests, and Stats exposes counters and latency
// percentiles for dashboards.
package booking
