package decode

import (
	"context"
	"encoding/base64"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSeekTolerance is how close, in seconds, the surface position
	// may already be to a requested instant for the seek to be skipped.
	DefaultSeekTolerance = 0.01

	// DefaultDecodeTimeout bounds one seek-and-rasterize operation so a
	// lost completion signal cannot stall the queue forever.
	DefaultDecodeTimeout = 10 * time.Second

	// durationGuard keeps clamped instants strictly inside the container;
	// seeking exactly to the duration yields no frame on many sources.
	durationGuard = 0.1
)

// Config tunes the pipeline. Zero values select the defaults.
type Config struct {
	SeekTolerance float64
	DecodeTimeout time.Duration
}

type frameRequest struct {
	id      string
	frameID int
	instant float64
	ticket  *Ticket
	gen     int
}

// Pipeline turns "decode the frame visible at instant S" into a cached
// image. Requests are served FIFO by a single worker, because the surface
// has exactly one position and one rendered frame; duplicate concurrent
// requests for a frame id coalesce onto one ticket, and results are cached
// per frame id until the source changes, which clears the cache in bulk.
type Pipeline struct {
	life    *Lifecycle
	surface Surface

	seekTolerance float64
	decodeTimeout time.Duration

	mu       sync.Mutex
	cache    map[int][]byte
	inflight map[int]*Ticket
	queue    []*frameRequest
	pumping  bool
	gen      int
}

// NewPipeline creates a pipeline over the lifecycle's surface. It
// subscribes to lifecycle resets (to reject outstanding work) and readiness
// (to resume the queue).
func NewPipeline(life *Lifecycle, surface Surface, cfg Config) *Pipeline {
	if cfg.SeekTolerance == 0 {
		cfg.SeekTolerance = DefaultSeekTolerance
	}
	if cfg.DecodeTimeout == 0 {
		cfg.DecodeTimeout = DefaultDecodeTimeout
	}

	p := &Pipeline{
		life:          life,
		surface:       surface,
		seekTolerance: cfg.SeekTolerance,
		decodeTimeout: cfg.DecodeTimeout,
		cache:         make(map[int][]byte),
		inflight:      make(map[int]*Ticket),
	}
	life.OnReset(p.flush)
	life.OnReady(p.kick)
	return p
}

// RequestFrame returns a ticket for the frame with the given id, decoded at
// the given instant of the video. Cached frames resolve immediately;
// in-flight frames return the existing ticket; everything else is queued.
// With the lifecycle failed or without a source the ticket fails
// immediately, since nothing can settle it until a new source arrives.
func (p *Pipeline) RequestFrame(frameID int, instant float64) *Ticket {
	p.mu.Lock()
	if img, ok := p.cache[frameID]; ok {
		p.mu.Unlock()
		return resolvedTicket(img)
	}
	if t, ok := p.inflight[frameID]; ok {
		p.mu.Unlock()
		return t
	}

	switch p.life.State() {
	case StateError:
		err := p.life.LastError()
		p.mu.Unlock()
		if err == nil {
			err = ErrNoSource
		}
		return rejectedTicket(err)
	case StateUninitialized:
		p.mu.Unlock()
		return rejectedTicket(ErrNoSource)
	}

	t := newTicket()
	req := &frameRequest{
		id:      uuid.New().String(),
		frameID: frameID,
		instant: instant,
		ticket:  t,
		gen:     p.gen,
	}
	p.inflight[frameID] = t
	p.queue = append(p.queue, req)
	p.startPumpLocked()
	p.mu.Unlock()

	log.Printf("[DECODE] request %s queued (frame %d at %.3fs)", req.id, frameID, instant)
	return t
}

// CachedFrame returns the cached image for a frame id, if present.
func (p *Pipeline) CachedFrame(frameID int) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	img, ok := p.cache[frameID]
	return img, ok
}

// PendingCount returns the number of unsettled requests.
func (p *Pipeline) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

func (p *Pipeline) kick() {
	p.mu.Lock()
	p.startPumpLocked()
	p.mu.Unlock()
}

func (p *Pipeline) startPumpLocked() {
	if p.pumping || len(p.queue) == 0 || p.life.State() != StateReady {
		return
	}
	p.pumping = true
	go p.pump()
}

// pump is the single queue worker. At most one runs at a time; it exits
// when the queue drains or the lifecycle leaves StateReady.
func (p *Pipeline) pump() {
	for {
		p.mu.Lock()
		if len(p.queue) == 0 || p.life.State() != StateReady {
			p.pumping = false
			p.mu.Unlock()
			return
		}
		req := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		img, err := p.decodeOne(req)

		p.mu.Lock()
		if req.gen == p.gen {
			if p.inflight[req.frameID] == req.ticket {
				delete(p.inflight, req.frameID)
			}
			if err == nil {
				p.cache[req.frameID] = img
			}
		}
		p.mu.Unlock()

		if err != nil {
			log.Printf("[DECODE] request %s (frame %d at %.3fs) failed: %v", req.id, req.frameID, req.instant, err)
			req.ticket.reject(err)
		} else {
			req.ticket.resolve(img)
		}
	}
}

func (p *Pipeline) decodeOne(req *frameRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.decodeTimeout)
	defer cancel()

	target := req.instant
	if target < 0 {
		target = 0
	}
	if dur := p.surface.Duration(); dur > 0 && target > dur-durationGuard {
		target = math.Max(0, dur-durationGuard)
	}

	// Skip the seek when the surface is already close enough to the target.
	if math.Abs(p.surface.Position()-target) > p.seekTolerance {
		if err := p.surface.Seek(ctx, target); err != nil {
			return nil, &SeekError{Instant: target, Err: err}
		}
	}
	return p.surface.Capture(ctx)
}

// flush rejects every queued and in-flight request and clears the cache.
// Queued requests all have in-flight tickets, so rejecting the in-flight
// table covers both. The generation bump keeps a decode that was running
// during the flush from writing its result into the fresh cache.
func (p *Pipeline) flush(cause error) {
	if cause == nil {
		cause = ErrReset
	}

	p.mu.Lock()
	p.gen++
	p.queue = nil
	inflight := p.inflight
	p.inflight = make(map[int]*Ticket)
	p.cache = make(map[int][]byte)
	p.mu.Unlock()

	if len(inflight) > 0 {
		log.Printf("[DECODE] flushed %d pending requests: %v", len(inflight), cause)
	}
	for _, t := range inflight {
		t.reject(cause)
	}
}

// DataURI renders a decoded JPEG as a data URI for direct embedding.
func DataURI(img []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)
}
