package video

import "fmt"

// Presenter accepts a finished frame for display. Present blocks until the
// display has taken the frame, which paces the caller.
type Presenter interface {
	Present(frame Frame) error
}

// Synchronizer swaps the front and back roles once per completed frame.
type Synchronizer struct {
	store      *FrameStore
	compositor *Compositor
	presenter  Presenter
	frames     uint64
}

// NewSynchronizer ties a store, its compositor and a presenter together.
func NewSynchronizer(store *FrameStore, compositor *Compositor, presenter Presenter) *Synchronizer {
	return &Synchronizer{
		store:      store,
		compositor: compositor,
		presenter:  presenter,
	}
}

// Start clears every slot and prepares the compositor for the first frame.
func (s *Synchronizer) Start() {
	s.store.Clear()
	s.compositor.BeginFrame()
}

// PresentFrame promotes the just-filled back slot to front, submits it and
// hands the previous front to the compositor. An incomplete frame is not
// presented.
func (s *Synchronizer) PresentFrame() error {
	if err := s.compositor.EndFrame(); err != nil {
		return err
	}

	s.store.Swap()
	if err := s.presenter.Present(s.store.FrontFrame()); err != nil {
		return fmt.Errorf("present frame %d: %w", s.frames, err)
	}

	s.compositor.BeginFrame()
	s.frames++
	return nil
}

// Frames returns the number of frames presented.
func (s *Synchronizer) Frames() uint64 {
	return s.frames
}
