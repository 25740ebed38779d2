// Package display renders a console report of a handful of API resources.
package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/iagooteles/swapicache"
)

const (
	starshipsKey = "starships/?page=1"
	planetsKey   = "planets/?page=1"
	filmsKey     = "films/"

	maxStarships  = 3
	maxVehicleID  = 4
	minPopulation = 1_000_000_000
	minDiameter   = 10_000
)

// Fetcher is the read side of *swapicache.Client the runner depends on.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (swapicache.Document, error)
}

// StatsFunc supplies the counters printed after a run.
type StatsFunc func() swapicache.StatsSnapshot

// Runner performs demo passes. Passes are serialized; each one prints a full
// report to the configured writer.
type Runner struct {
	fetcher Fetcher
	out     io.Writer
	stats   StatsFunc
	debug   bool
	logger  zerolog.Logger

	mu     sync.Mutex
	nextID int
	runs   atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithDebug prints progress and a stats block after each run.
func WithDebug(enabled bool) Option {
	return func(r *Runner) {
		r.debug = enabled
	}
}

// WithStats sets the source for the stats block.
func WithStats(stats StatsFunc) Option {
	return func(r *Runner) {
		r.stats = stats
	}
}

// WithLogger sets the logger used for section failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithStartID sets the first character and vehicle id.
func WithStartID(id int) Option {
	return func(r *Runner) {
		r.nextID = id
	}
}

// NewRunner creates a runner reading from fetcher and writing to out.
func NewRunner(fetcher Fetcher, out io.Writer, options ...Option) *Runner {
	r := &Runner{
		fetcher: fetcher,
		out:     out,
		logger:  zerolog.Nop(),
		nextID:  1,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Runs returns the number of passes started.
func (r *Runner) Runs() int64 {
	return r.runs.Load()
}

// NextID returns the id the next pass will use for its character.
func (r *Runner) NextID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nextID
}

type section struct {
	name   string
	key    string
	render func(w io.Writer, doc swapicache.Document)
	doc    swapicache.Document
	err    error
}

// Run performs one pass. A failing section is reported in the output and the
// remaining sections still render; the returned error joins every failure.
func (r *Runner) Run(ctx context.Context) error {
	r.runs.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.debug {
		fmt.Fprintln(r.out, "Starting data fetch...")
	}

	id := r.nextID
	sections := []*section{
		{name: "character", key: fmt.Sprintf("people/%d", id), render: renderCharacter},
		{name: "starships", key: starshipsKey, render: renderStarships},
		{name: "planets", key: planetsKey, render: renderPlanets},
		{name: "films", key: filmsKey, render: renderFilms},
	}
	var vehicle *section
	if id <= maxVehicleID {
		vehicle = &section{name: "vehicle", key: fmt.Sprintf("vehicles/%d", id), render: renderVehicle}
		sections = append(sections, vehicle)
	}

	var g errgroup.Group
	for _, s := range sections {
		s := s
		g.Go(func() error {
			s.doc, s.err = r.fetcher.Fetch(ctx, s.key)
			return s.err
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Debug().Err(err).Msg("Prefetch incomplete")
	}

	var errs []error
	for _, s := range sections {
		if s.err != nil {
			r.logger.Warn().Err(s.err).Str("section", s.name).Str("key", s.key).Msg("Section failed")
			fmt.Fprintf(r.out, "\nError loading %s: %v\n", s.name, s.err)
			errs = append(errs, fmt.Errorf("%s: %w", s.name, s.err))
			continue
		}
		s.render(r.out, s.doc)
	}

	if vehicle != nil && vehicle.err == nil {
		r.nextID++
	}

	if r.debug {
		r.printStats()
	}

	return errors.Join(errs...)
}

func (r *Runner) printStats() {
	fmt.Fprintln(r.out, "\nStats:")
	fmt.Fprintln(r.out, "API Calls:", r.Runs())
	if r.stats == nil {
		return
	}
	snapshot := r.stats()
	fmt.Fprintln(r.out, "Cache Size:", snapshot.CacheSize)
	fmt.Fprintf(r.out, "Total Data Size: %d bytes (%s)\n", snapshot.CumulativeBytes, humanize.Bytes(uint64(snapshot.CumulativeBytes)))
	fmt.Fprintln(r.out, "Error Count:", snapshot.ErrorsObserved)
}

func renderCharacter(w io.Writer, doc swapicache.Document) {
	fmt.Fprintln(w, "Character:", doc.Get("name").String())
	fmt.Fprintln(w, "Height:", doc.Get("height").String())
	fmt.Fprintln(w, "Mass:", doc.Get("mass").String())
	fmt.Fprintln(w, "Birthday:", doc.Get("birth_year").String())
	if films := doc.Get("films.#").Int(); films > 0 {
		fmt.Fprintln(w, "Appears in", films, "films")
	}
}

func renderStarships(w io.Writer, doc swapicache.Document) {
	fmt.Fprintln(w, "\nTotal Starships:", doc.Get("count").Int())

	results := doc.Get("results").Array()
	if len(results) > maxStarships {
		results = results[:maxStarships]
	}
	for i, ship := range results {
		fmt.Fprintf(w, "\nStarship %d:\n", i+1)
		fmt.Fprintln(w, "Name:", ship.Get("name").String())
		fmt.Fprintln(w, "Model:", ship.Get("model").String())
		fmt.Fprintln(w, "Manufacturer:", ship.Get("manufacturer").String())
		if cost := ship.Get("cost_in_credits").String(); cost != "unknown" {
			fmt.Fprintln(w, "Cost:", cost, "credits")
		} else {
			fmt.Fprintln(w, "Cost: unknown")
		}
		fmt.Fprintln(w, "Speed:", ship.Get("max_atmosphering_speed").String())
		fmt.Fprintln(w, "Hyperdrive Rating:", ship.Get("hyperdrive_rating").String())
		if pilots := ship.Get("pilots.#").Int(); pilots > 0 {
			fmt.Fprintln(w, "Pilots:", pilots)
		}
	}
}

func renderPlanets(w io.Writer, doc swapicache.Document) {
	fmt.Fprintln(w, "\nLarge populated planets:")
	for _, planet := range doc.Get("results").Array() {
		if !isLargePopulated(planet) {
			continue
		}
		fmt.Fprintln(w, planet.Get("name").String(),
			"- Pop:", planet.Get("population").String(),
			"- Diameter:", planet.Get("diameter").String(),
			"- Climate:", planet.Get("climate").String())
		if films := planet.Get("films.#").Int(); films > 0 {
			fmt.Fprintf(w, "Appears in %d films\n", films)
		}
	}
}

func isLargePopulated(planet gjson.Result) bool {
	population, ok := leadingInt(planet.Get("population").String())
	if !ok || population <= minPopulation {
		return false
	}
	diameter, ok := leadingInt(planet.Get("diameter").String())
	return ok && diameter > minDiameter
}

// leadingInt parses the leading decimal digits of s. "unknown" and other
// non numeric values report false.
func leadingInt(s string) (int64, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func renderFilms(w io.Writer, doc swapicache.Document) {
	films := doc.Get("results").Array()
	sort.SliceStable(films, func(i, j int) bool {
		return releaseDate(films[i]).Before(releaseDate(films[j]))
	})

	fmt.Fprintln(w, "\nStar Wars Films in chronological order:")
	for i, film := range films {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, film.Get("title").String(), film.Get("release_date").String())
		fmt.Fprintf(w, "Director: %s\n", film.Get("director").String())
		fmt.Fprintf(w, "Producer: %s\n", film.Get("producer").String())
		fmt.Fprintf(w, "Characters: %d\n", film.Get("characters.#").Int())
		fmt.Fprintf(w, "Planets: %d\n", film.Get("planets.#").Int())
	}
}

func releaseDate(film gjson.Result) time.Time {
	date, err := time.Parse(time.DateOnly, film.Get("release_date").String())
	if err != nil {
		return time.Time{}
	}
	return date
}

func renderVehicle(w io.Writer, doc swapicache.Document) {
	fmt.Fprintln(w, "\nFeatured Vehicle:")
	fmt.Fprintln(w, "Name:", doc.Get("name").String())
	fmt.Fprintln(w, "Model:", doc.Get("model").String())
	fmt.Fprintln(w, "Manufacturer:", doc.Get("manufacturer").String())
	fmt.Fprintln(w, "Cost:", doc.Get("cost_in_credits").String(), "credits")
	fmt.Fprintln(w, "Length:", doc.Get("length").String())
	fmt.Fprintln(w, "Crew Required:", doc.Get("crew").String())
	fmt.Fprintln(w, "Passengers:", doc.Get("passengers").String())
}
