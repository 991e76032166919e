package ui

// InputKind identifies a window input event
type InputKind int

const (
	KeyInput InputKind = iota
	MouseButtonInput
	CursorInput
)

// InputEvent is a keyboard or mouse event forwarded to the camera
type InputEvent struct {
	Kind    InputKind `json:"kind"`
	Key     int       `json:"key,omitempty"`    // KeyInput
	Button  int       `json:"button,omitempty"` // MouseButtonInput
	Pressed bool      `json:"pressed,omitempty"`
	X       float64   `json:"x,omitempty"` // CursorInput
	Y       float64   `json:"y,omitempty"`
}

// Batch is everything a source received since the last poll, in arrival order
type Batch struct {
	Edits []Edits
	Input []InputEvent
}

// Empty reports whether the batch holds nothing
func (b Batch) Empty() bool {
	return len(b.Edits) == 0 && len(b.Input) == 0
}

// Source delivers UI edits to the frame loop. Poll never blocks.
type Source interface {
	Poll() Batch
}

// ChannelSource queues edits and input pushed from other goroutines until
// the frame loop polls them
type ChannelSource struct {
	edits chan Edits
	input chan InputEvent
}

// NewChannelSource creates a source that buffers up to capacity edits and
// capacity input events between polls
func NewChannelSource(capacity int) *ChannelSource {
	return &ChannelSource{
		edits: make(chan Edits, capacity),
		input: make(chan InputEvent, capacity),
	}
}

// PushEdits queues an edit. It returns false when the queue is full.
func (s *ChannelSource) PushEdits(e Edits) bool {
	select {
	case s.edits <- e:
		return true
	default:
		return false
	}
}

// PushInput queues an input event. It returns false when the queue is full.
func (s *ChannelSource) PushInput(ev InputEvent) bool {
	select {
	case s.input <- ev:
		return true
	default:
		return false
	}
}

// Poll drains everything queued so far
func (s *ChannelSource) Poll() Batch {
	var b Batch
	for {
		select {
		case e := <-s.edits:
			b.Edits = append(b.Edits, e)
		default:
			for {
				select {
				case ev := <-s.input:
					b.Input = append(b.Input, ev)
				default:
					return b
				}
			}
		}
	}
}

// MultiSource polls several sources in order
type MultiSource []Source

func (m MultiSource) Poll() Batch {
	var b Batch
	for _, s := range m {
		next := s.Poll()
		b.Edits = append(b.Edits, next.Edits...)
		b.Input = append(b.Input, next.Input...)
	}
	return b
}
