package detection

import (
	"math"
	"sync"
	"time"

	"github.com/recovr-ai/matching-engine/internal/catalog"
)

// TrackerConfig tunes detection tracking and abandonment scoring.
type TrackerConfig struct {
	// IOUThreshold is the minimum overlap to associate a detection with
	// an existing track.
	IOUThreshold float64
	// TrackTimeout evicts tracks not observed for this long.
	TrackTimeout time.Duration
	// HistoryLength bounds the per-track box history.
	HistoryLength int
	// SpeedThreshold in units per second below which a track counts as
	// stationary.
	SpeedThreshold float64
	// VelocitySmoothing is the weight of the previous velocity estimate
	// in the exponential moving average.
	VelocitySmoothing float64
}

// DefaultTrackerConfig returns the default tracker tuning.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		IOUThreshold:      0.5,
		TrackTimeout:      30 * time.Second,
		HistoryLength:     15,
		SpeedThreshold:    2.0,
		VelocitySmoothing: 0.7,
	}
}

// minObserveGap floors the frame gap so a burst of observations cannot
// produce absurd velocities.
const minObserveGap = 100 * time.Millisecond

// categoryRiskWeights scale abandonment scores by how likely a category
// is to be a genuinely abandoned item of value.
var categoryRiskWeights = map[catalog.Category]float64{
	catalog.CategoryBags:        1.3,
	catalog.CategoryElectronics: 1.2,
	catalog.CategoryKeys:        1.4,
	catalog.CategoryClothing:    0.8,
	catalog.CategoryAccessories: 1.0,
}

// Track is a read-only snapshot of a tracked object.
type Track struct {
	TrackingID     int              `json:"tracking_id"`
	Box            Box              `json:"box"`
	Category       catalog.Category `json:"category"`
	StationaryTime time.Duration    `json:"stationary_time"`
	FirstSeen      time.Time        `json:"first_seen"`
	LastSeen       time.Time        `json:"last_seen"`
	Frames         int              `json:"frames"`
}

// slot holds the mutable state of one track. Slots are arena-allocated:
// freed slots return to a free list and get reused, so track handles are
// stable small integers.
type slot struct {
	active     bool
	id         int
	box        Box
	vx, vy     float64
	stationary time.Duration
	history    []Box
	firstSeen  time.Time
	lastSeen   time.Time
	frames     int
}

// Tracker associates detections across frames and accumulates the signals
// behind abandonment scoring. Safe for concurrent use.
type Tracker struct {
	config TrackerConfig

	mu     sync.Mutex
	slots  []slot
	free   []int
	byID   map[int]int // tracking ID -> slot index
	nextID int
}

// NewTracker creates a tracker.
func NewTracker(config TrackerConfig) *Tracker {
	if config.IOUThreshold <= 0 {
		config.IOUThreshold = 0.5
	}
	if config.TrackTimeout <= 0 {
		config.TrackTimeout = 30 * time.Second
	}
	if config.HistoryLength <= 0 {
		config.HistoryLength = 15
	}
	if config.SpeedThreshold <= 0 {
		config.SpeedThreshold = 2.0
	}
	if config.VelocitySmoothing <= 0 || config.VelocitySmoothing >= 1 {
		config.VelocitySmoothing = 0.7
	}
	return &Tracker{
		config: config,
		byID:   make(map[int]int),
		nextID: 1,
	}
}

// Observe ingests one frame of detections at the given time and returns
// them with tracking IDs assigned. A detection carrying the tracking ID
// of a live track of the same category continues that track directly;
// the rest associate by overlap, and whatever remains starts new tracks.
func (t *Tracker) Observe(now time.Time, boxes []Box) []Box {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Box, len(boxes))
	claimed := make(map[int]bool, len(boxes))

	for i, box := range boxes {
		idx := t.matchByID(box, claimed)
		if idx < 0 {
			idx = t.bestMatch(box, claimed)
		}
		if idx < 0 {
			idx = t.newSlot(now, box)
		} else {
			t.updateSlot(idx, now, box)
		}
		claimed[idx] = true

		box.TrackingID = t.slots[idx].id
		out[i] = box
	}
	return out
}

// matchByID resolves a detection that already names its track.
func (t *Tracker) matchByID(box Box, claimed map[int]bool) int {
	if box.TrackingID <= 0 {
		return -1
	}
	idx, ok := t.byID[box.TrackingID]
	if !ok || claimed[idx] || t.slots[idx].box.Category != box.Category {
		return -1
	}
	return idx
}

// bestMatch finds the unclaimed active slot with the highest IoU at or
// above the association threshold.
func (t *Tracker) bestMatch(box Box, claimed map[int]bool) int {
	best, bestIoU := -1, t.config.IOUThreshold
	for i := range t.slots {
		s := &t.slots[i]
		if !s.active || claimed[i] || s.box.Category != box.Category {
			continue
		}
		if iou := IoU(s.box, box); iou >= bestIoU {
			best, bestIoU = i, iou
		}
	}
	return best
}

func (t *Tracker) newSlot(now time.Time, box Box) int {
	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		t.slots = append(t.slots, slot{})
		idx = len(t.slots) - 1
	}

	id := t.nextID
	t.nextID++

	t.slots[idx] = slot{
		active:    true,
		id:        id,
		box:       box,
		history:   []Box{box},
		firstSeen: now,
		lastSeen:  now,
		frames:    1,
	}
	t.byID[id] = idx
	return idx
}

func (t *Tracker) updateSlot(idx int, now time.Time, box Box) {
	s := &t.slots[idx]

	dt := now.Sub(s.lastSeen)
	if dt < minObserveGap {
		dt = minObserveGap
	}

	cx, cy := box.Center()
	px, py := s.box.Center()
	ivx := (cx - px) / dt.Seconds()
	ivy := (cy - py) / dt.Seconds()

	alpha := t.config.VelocitySmoothing
	s.vx = alpha*s.vx + (1-alpha)*ivx
	s.vy = alpha*s.vy + (1-alpha)*ivy

	if math.Hypot(s.vx, s.vy) < t.config.SpeedThreshold {
		s.stationary += now.Sub(s.lastSeen)
	} else {
		s.stationary = 0
	}

	s.box = box
	s.lastSeen = now
	s.frames++
	s.history = append(s.history, box)
	if len(s.history) > t.config.HistoryLength {
		s.history = s.history[len(s.history)-t.config.HistoryLength:]
	}
}

// Tracks returns snapshots of all active tracks.
func (t *Tracker) Tracks() []Track {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Track, 0, len(t.byID))
	for i := range t.slots {
		if t.slots[i].active {
			out = append(out, t.snapshot(&t.slots[i]))
		}
	}
	return out
}

// Get returns the track with the given ID.
func (t *Tracker) Get(trackingID int) (Track, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.byID[trackingID]
	if !ok {
		return Track{}, false
	}
	return t.snapshot(&t.slots[idx]), true
}

func (t *Tracker) snapshot(s *slot) Track {
	return Track{
		TrackingID:     s.id,
		Box:            s.box,
		Category:       s.box.Category,
		StationaryTime: s.stationary,
		FirstSeen:      s.firstSeen,
		LastSeen:       s.lastSeen,
		Frames:         s.frames,
	}
}

// AbandonmentScore estimates how likely the tracked object is an
// abandoned item, in [0,1]. It blends stationary time, movement
// stability, observation count, and size stability, scaled by a
// per-category risk weight.
func (t *Tracker) AbandonmentScore(trackingID int) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.byID[trackingID]
	if !ok {
		return 0, false
	}
	s := &t.slots[idx]

	stationaryMin := s.stationary.Minutes()
	stationaryScore := 1 - math.Pow(2, -stationaryMin/5)

	movementScore := 1 / (1 + centerVariance(s.history))

	frameScore := math.Min(1, float64(s.frames)/30)

	sizeScore := sizeStability(s.history)

	score := 0.4*stationaryScore + 0.25*movementScore + 0.2*frameScore + 0.15*sizeScore

	if w, ok := categoryRiskWeights[s.box.Category]; ok {
		score *= w
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, true
}

// Sweep evicts tracks that have not been observed within the timeout and
// returns their final snapshots.
func (t *Tracker) Sweep(now time.Time) []Track {
	t.mu.Lock()
	defer t.mu.Unlock()

	var evicted []Track
	for i := range t.slots {
		s := &t.slots[i]
		if !s.active || now.Sub(s.lastSeen) < t.config.TrackTimeout {
			continue
		}
		evicted = append(evicted, t.snapshot(s))
		delete(t.byID, s.id)
		t.slots[i] = slot{}
		t.free = append(t.free, i)
	}
	return evicted
}

// centerVariance is the variance of box center positions across the
// history, summed over both axes.
func centerVariance(history []Box) float64 {
	if len(history) < 2 {
		return 0
	}
	var sx, sy float64
	for _, b := range history {
		cx, cy := b.Center()
		sx += cx
		sy += cy
	}
	mx := sx / float64(len(history))
	my := sy / float64(len(history))

	var v float64
	for _, b := range history {
		cx, cy := b.Center()
		v += (cx-mx)*(cx-mx) + (cy-my)*(cy-my)
	}
	return v / float64(len(history))
}

// sizeStability compares area spread to mean area: a box whose size never
// changes scores 1.
func sizeStability(history []Box) float64 {
	if len(history) < 2 {
		return 1
	}
	var sum float64
	for _, b := range history {
		sum += b.Area()
	}
	mean := sum / float64(len(history))
	if mean == 0 {
		return 0
	}

	var v float64
	for _, b := range history {
		d := b.Area() - mean
		v += d * d
	}
	stddev := math.Sqrt(v / float64(len(history)))

	return 1 - math.Min(1, stddev/mean)
}
