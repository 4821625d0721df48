package render

import "github.com/cockroachdb/errors"

// DefaultFramesInFlight is the number of frames the CPU may queue ahead of
// the GPU.
const DefaultFramesInFlight = 2

// SlotState tracks where a frame slot is in the render-frame lifecycle.
type SlotState int

const (
	SlotIdle SlotState = iota
	SlotAcquiring
	SlotSubmitted
	SlotPresenting
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "Idle"
	case SlotAcquiring:
		return "Acquiring"
	case SlotSubmitted:
		return "Submitted"
	case SlotPresenting:
		return "Presenting"
	}
	return "Unknown"
}

// FrameSlot holds the synchronization primitives for one frame in flight.
type FrameSlot struct {
	ImageAvailable Semaphore
	RenderFinished Semaphore
	InFlight       Fence
	State          SlotState
}

// FrameRing is a fixed ring of frame slots selected by a modulo counter.
// Slots are created together and destroyed together.
type FrameRing struct {
	slots   []FrameSlot
	current int
}

// NewFrameRing creates count slots. Fences start signaled so the first wait
// on each slot returns immediately.
func NewFrameRing(device SyncDevice, count int) (*FrameRing, error) {
	if count < 1 {
		return nil, errors.Mark(errors.Newf("frames in flight must be positive, got %d", count), ErrSyncCreation)
	}

	ring := &FrameRing{slots: make([]FrameSlot, count)}
	for i := range ring.slots {
		slot := &ring.slots[i]
		var err error

		slot.ImageAvailable, err = device.CreateSemaphore()
		if err != nil {
			ring.Destroy(device)
			return nil, stageFailure(ErrSyncCreation, err, "create image-available semaphore %d", i)
		}

		slot.RenderFinished, err = device.CreateSemaphore()
		if err != nil {
			ring.Destroy(device)
			return nil, stageFailure(ErrSyncCreation, err, "create render-finished semaphore %d", i)
		}

		slot.InFlight, err = device.CreateFence(true)
		if err != nil {
			ring.Destroy(device)
			return nil, stageFailure(ErrSyncCreation, err, "create in-flight fence %d", i)
		}
	}

	return ring, nil
}

// Len is the number of slots.
func (r *FrameRing) Len() int { return len(r.slots) }

// CurrentIndex is the index of the slot the next frame will use.
func (r *FrameRing) CurrentIndex() int { return r.current }

// Current returns the active slot.
func (r *FrameRing) Current() *FrameSlot { return &r.slots[r.current] }

// Slot returns slot i.
func (r *FrameRing) Slot(i int) *FrameSlot { return &r.slots[i] }

// Advance moves to the next slot.
func (r *FrameRing) Advance() {
	r.current = (r.current + 1) % len(r.slots)
}

// Destroy releases every slot's primitives. The device must be idle.
func (r *FrameRing) Destroy(device SyncDevice) {
	for i := range r.slots {
		slot := &r.slots[i]
		if slot.InFlight != nil {
			device.DestroyFence(slot.InFlight)
			slot.InFlight = nil
		}
		if slot.RenderFinished != nil {
			device.DestroySemaphore(slot.RenderFinished)
			slot.RenderFinished = nil
		}
		if slot.ImageAvailable != nil {
			device.DestroySemaphore(slot.ImageAvailable)
			slot.ImageAvailable = nil
		}
	}
}
