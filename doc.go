// Package swapicache fetches read-only resources from the Star Wars API and
// keeps every successful document in memory for the life of the process:
//
//   - Resource keys such as "people/1" or "starships/?page=1" resolve against a fixed base URL
//   - A miss issues one GET bounded by a timeout; concurrent misses for a key share that request
//   - Failures are classified (transport, timeout, HTTP status, parse) and never cached or retried
//   - Usage counters (completed requests, errors, payload bytes, cache size) are read as snapshots
//   - Optional Prometheus metrics, OpenTelemetry spans and structured debug logging
//
// Typical usage:
//
//	client := swapicache.New(
//	    swapicache.WithTimeout(5*time.Second),
//	    swapicache.WithLogger(swapicache.NewZerologLogger(log.Logger)),
//	)
//	doc, err := client.Fetch(ctx, "people/1")
//	if err != nil {
//	    // errors.Is(err, swapicache.ErrTimeout), swapicache.IsNotFound(err), ...
//	}
//	fmt.Println(doc.Get("name").String())
//
// TLS certificates are always verified unless WithInsecureSkipVerifyForTesting is given.
package swapicache
