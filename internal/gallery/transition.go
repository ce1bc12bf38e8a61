package gallery

import (
	"math"
	"time"
)

// Visual holds the animated properties of a cell
type Visual struct {
	Scale   float64
	Opacity float64
}

// Rest is the resting visual state
var Rest = Visual{Scale: 1, Opacity: 1}

// FadeInFrom is where the fade/scale-in transition starts
var FadeInFrom = Visual{Scale: 1.1, Opacity: 0}

const (
	// DefaultTransitionDuration matches the thumbnail reveal in the desktop client
	DefaultTransitionDuration = 2 * time.Second

	// DefaultEaseExponent controls the exponential ease-out curve
	DefaultEaseExponent = 12.0
)

// EaseMode selects which end of the curve is slow
type EaseMode int

const (
	EaseOut EaseMode = iota
	EaseIn
	EaseInOut
)

// ExponentialEase maps linear progress onto an exponential curve
type ExponentialEase struct {
	Exponent float64
	Mode     EaseMode
}

// Ease returns eased progress for t in [0, 1]
func (e ExponentialEase) Ease(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch e.Mode {
	case EaseIn:
		return e.in(t)
	case EaseInOut:
		if t < 0.5 {
			return e.in(t*2) / 2
		}
		return 0.5 + (1-e.in((1-t)*2))/2
	default:
		return 1 - e.in(1-t)
	}
}

func (e ExponentialEase) in(t float64) float64 {
	if e.Exponent == 0 {
		return t
	}
	return (math.Exp(e.Exponent*t) - 1) / (math.Exp(e.Exponent) - 1)
}

// Storyboard animates a Visual between two states
type Storyboard struct {
	From     Visual
	To       Visual
	Duration time.Duration
	Ease     ExponentialEase

	start   time.Time
	running bool
}

func (s *Storyboard) Start(now time.Time) {
	s.start = now
	s.running = true
}

func (s *Storyboard) Running() bool { return s.running }

// At returns the visual at now and whether the storyboard completed
func (s *Storyboard) At(now time.Time) (Visual, bool) {
	if !s.running {
		return s.From, false
	}
	if s.Duration <= 0 {
		return s.To, true
	}
	t := float64(now.Sub(s.start)) / float64(s.Duration)
	if t >= 1 {
		return s.To, true
	}
	p := s.Ease.Ease(t)
	return Visual{
		Scale:   s.From.Scale + (s.To.Scale-s.From.Scale)*p,
		Opacity: s.From.Opacity + (s.To.Opacity-s.From.Opacity)*p,
	}, false
}

// Animator plays or skips the reveal of a freshly loading thumbnail
type Animator interface {
	FadeIn(item *Item)
	Snap(item *Item)
}

// Transitions is the default Animator. The fade-in is armed immediately and
// starts when the thumbnail arrives.
type Transitions struct {
	Enabled  bool
	Duration time.Duration
	Ease     ExponentialEase
}

func NewTransitions(enabled bool) *Transitions {
	return &Transitions{
		Enabled:  enabled,
		Duration: DefaultTransitionDuration,
		Ease:     ExponentialEase{Exponent: DefaultEaseExponent, Mode: EaseOut},
	}
}

func (t *Transitions) FadeIn(item *Item) {
	if !t.Enabled {
		t.Snap(item)
		return
	}
	item.visual = FadeInFrom
	item.board = &Storyboard{
		From:     FadeInFrom,
		To:       Rest,
		Duration: t.Duration,
		Ease:     t.Ease,
	}
}

func (t *Transitions) Snap(item *Item) {
	item.visual = Rest
	item.board = nil
}
