package display

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iagooteles/swapicache"
)

type fakeFetcher struct {
	mu      sync.Mutex
	docs    map[string]string
	failing map[string]error
	keys    []string
}

func (f *fakeFetcher) Fetch(_ context.Context, key string) (swapicache.Document, error) {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()

	if err, ok := f.failing[key]; ok {
		return swapicache.Document{}, err
	}
	raw, ok := f.docs[key]
	if !ok {
		return swapicache.Document{}, &swapicache.FetchError{Kind: swapicache.ErrorKindHTTPStatus, Key: key, StatusCode: 404, Message: "request failed with status code 404"}
	}
	return swapicache.MustParseDocument(raw), nil
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

func fixtures() map[string]string {
	return map[string]string{
		"people/1": `{"name":"Luke Skywalker","height":"172","mass":"77","birth_year":"19BBY","films":["f1","f2","f3","f4"]}`,
		"people/2": `{"name":"C-3PO","height":"167","mass":"75","birth_year":"112BBY","films":[]}`,
		"starships/?page=1": `{"count":36,"results":[
			{"name":"CR90 corvette","model":"CR90 corvette","manufacturer":"Corellian Engineering Corporation","cost_in_credits":"3500000","max_atmosphering_speed":"950","hyperdrive_rating":"2.0","pilots":[]},
			{"name":"Star Destroyer","model":"Imperial I-class Star Destroyer","manufacturer":"Kuat Drive Yards","cost_in_credits":"150000000","max_atmosphering_speed":"975","hyperdrive_rating":"2.0","pilots":[]},
			{"name":"Sentinel-class landing craft","model":"Sentinel-class landing craft","manufacturer":"Sienar Fleet Systems","cost_in_credits":"unknown","max_atmosphering_speed":"1000","hyperdrive_rating":"1.0","pilots":["p1","p2"]},
			{"name":"Death Star","model":"DS-1 Orbital Battle Station","manufacturer":"Imperial Department of Military Research","cost_in_credits":"1000000000000","max_atmosphering_speed":"n/a","hyperdrive_rating":"4.0","pilots":[]}
		]}`,
		"planets/?page=1": `{"results":[
			{"name":"Tatooine","population":"200000","diameter":"10465","climate":"arid","films":["a"]},
			{"name":"Coruscant","population":"1000000000000","diameter":"12240","climate":"temperate","films":["a","b","c","d"]},
			{"name":"Hoth","population":"unknown","diameter":"7200","climate":"frozen","films":[]},
			{"name":"Kamino","population":"1000000000","diameter":"19720","climate":"temperate","films":["a"]},
			{"name":"Naboo","population":"4500000000","diameter":"12120","climate":"temperate","films":["a","b","c","d"]}
		]}`,
		"films/": `{"results":[
			{"title":"The Empire Strikes Back","release_date":"1980-05-17","director":"Irvin Kershner","producer":"Gary Kurtz, Rick McCallum","characters":["a","b"],"planets":["a"]},
			{"title":"A New Hope","release_date":"1977-05-25","director":"George Lucas","producer":"Gary Kurtz, Rick McCallum","characters":["a","b","c"],"planets":["a","b"]},
			{"title":"The Phantom Menace","release_date":"1999-05-19","director":"George Lucas","producer":"Rick McCallum","characters":[],"planets":[]}
		]}`,
		"vehicles/1": `{"name":"Sand Crawler","model":"Digger Crawler","manufacturer":"Corellia Mining Corporation","cost_in_credits":"150000","length":"36.8","crew":"46","passengers":"30"}`,
		"vehicles/2": `{"name":"T-16 skyhopper","model":"T-16 skyhopper","manufacturer":"Incom Corporation","cost_in_credits":"14500","length":"10.4","crew":"1","passengers":"1"}`,
	}
}

func TestRunRendersEverySection(t *testing.T) {
	fetcher := &fakeFetcher{docs: fixtures()}
	var out bytes.Buffer
	runner := NewRunner(fetcher, &out)

	require.NoError(t, runner.Run(context.Background()))

	report := out.String()
	for _, want := range []string{
		"Character: Luke Skywalker",
		"Height: 172",
		"Birthday: 19BBY",
		"Appears in 4 films",
		"Total Starships: 36",
		"Starship 3:",
		"Cost: 3500000 credits",
		"Cost: unknown",
		"Pilots: 2",
		"Coruscant - Pop: 1000000000000 - Diameter: 12240 - Climate: temperate",
		"Naboo - Pop: 4500000000",
		"Featured Vehicle:",
		"Name: Sand Crawler",
		"Crew Required: 46",
	} {
		assert.Contains(t, report, want)
	}

	assert.NotContains(t, report, "Death Star")
	assert.NotContains(t, report, "Tatooine -")
	assert.NotContains(t, report, "Hoth -")
	assert.NotContains(t, report, "Kamino -", "population must be strictly greater than the threshold")
	assert.NotContains(t, report, "Stats:", "stats block only prints in debug mode")
	assert.Equal(t, int64(1), runner.Runs())
	assert.ElementsMatch(t, []string{"people/1", "starships/?page=1", "planets/?page=1", "films/", "vehicles/1"}, fetcher.fetched())
}

func TestRunSortsFilmsByReleaseDate(t *testing.T) {
	var out bytes.Buffer
	runner := NewRunner(&fakeFetcher{docs: fixtures()}, &out)

	require.NoError(t, runner.Run(context.Background()))

	report := out.String()
	hope := strings.Index(report, "1. A New Hope (1977-05-25)")
	empire := strings.Index(report, "2. The Empire Strikes Back (1980-05-17)")
	menace := strings.Index(report, "3. The Phantom Menace (1999-05-19)")
	require.True(t, hope >= 0 && empire >= 0 && menace >= 0, report)
	assert.Less(t, hope, empire)
	assert.Less(t, empire, menace)
	assert.Contains(t, report, "Characters: 3\nPlanets: 2")
}

func TestRunContinuesAfterFailedSection(t *testing.T) {
	failure := &swapicache.FetchError{Kind: swapicache.ErrorKindTimeout, Key: "starships/?page=1", Message: "request timed out"}
	fetcher := &fakeFetcher{docs: fixtures(), failing: map[string]error{"starships/?page=1": failure}}
	var out bytes.Buffer
	runner := NewRunner(fetcher, &out)

	err := runner.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, swapicache.ErrTimeout))
	report := out.String()
	assert.Contains(t, report, "Error loading starships:")
	assert.Contains(t, report, "Character: Luke Skywalker")
	assert.Contains(t, report, "Large populated planets:")
	assert.Contains(t, report, "Star Wars Films in chronological order:")
	assert.Contains(t, report, "Featured Vehicle:")
}

func TestRunAdvancesSharedID(t *testing.T) {
	runner := NewRunner(&fakeFetcher{docs: fixtures()}, &bytes.Buffer{})

	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 2, runner.NextID())

	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, 3, runner.NextID())
	assert.Equal(t, int64(2), runner.Runs())
}

func TestRunKeepsIDWhenVehicleFails(t *testing.T) {
	fetcher := &fakeFetcher{docs: fixtures()}
	delete(fetcher.docs, "vehicles/1")
	var out bytes.Buffer
	runner := NewRunner(fetcher, &out)

	err := runner.Run(context.Background())

	require.Error(t, err)
	assert.True(t, swapicache.IsNotFound(err))
	assert.Equal(t, 1, runner.NextID())
	assert.Contains(t, out.String(), "Error loading vehicle:")
}

func TestRunSkipsVehicleAfterLimit(t *testing.T) {
	docs := fixtures()
	docs["people/5"] = `{"name":"Leia Organa","height":"150","mass":"49","birth_year":"19BBY","films":["a"]}`
	fetcher := &fakeFetcher{docs: docs}
	var out bytes.Buffer
	runner := NewRunner(fetcher, &out, WithStartID(5))

	require.NoError(t, runner.Run(context.Background()))

	assert.NotContains(t, out.String(), "Featured Vehicle:")
	assert.NotContains(t, fetcher.fetched(), "vehicles/5")
	assert.Equal(t, 5, runner.NextID())
}

func TestRunPrintsStatsInDebugMode(t *testing.T) {
	stats := func() swapicache.StatsSnapshot {
		return swapicache.StatsSnapshot{RequestsCompleted: 5, ErrorsObserved: 1, CumulativeBytes: 2048, CacheSize: 5}
	}
	var out bytes.Buffer
	runner := NewRunner(&fakeFetcher{docs: fixtures()}, &out, WithDebug(true), WithStats(stats))

	require.NoError(t, runner.Run(context.Background()))

	report := out.String()
	assert.True(t, strings.HasPrefix(report, "Starting data fetch..."))
	assert.Contains(t, report, "\nStats:\nAPI Calls: 1\nCache Size: 5\n")
	assert.Contains(t, report, "Total Data Size: 2048 bytes (2.0 kB)")
	assert.Contains(t, report, "Error Count: 1")
}

func TestLeadingInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"1000", 1000, true},
		{"12500 km", 12500, true},
		{"unknown", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := leadingInt(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
