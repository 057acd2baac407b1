package safe

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// MemoryTracker is notified of every Mat allocation and release. It lives
// here as an interface so the tracker package does not need cgo. The release
// carries the final size because output Mats are allocated empty and only
// grow once OpenCV writes into them.
type MemoryTracker interface {
	TrackAllocation(id uint64, size int64, tag string)
	TrackDeallocation(id uint64, size int64, tag string)
}

// Mat owns one gocv.Mat and guarantees it is closed exactly once, falling back
// to a finalizer when Close is never called.
type Mat struct {
	mat     gocv.Mat
	isValid int32
	id      uint64
	tracker MemoryTracker
	tag     string
}

var nextMatID uint64

func NewMat(rows, cols int, matType gocv.MatType, tracker MemoryTracker, tag string) (*Mat, error) {
	if err := ValidateDimensions(cols, rows, tag); err != nil {
		return nil, err
	}
	m := gocv.NewMatWithSize(rows, cols, matType)
	if m.Empty() {
		m.Close()
		return nil, errors.Errorf("failed to allocate %dx%d Mat", cols, rows)
	}
	return wrap(m, tracker, tag), nil
}

// NewEmpty returns an unallocated Mat for OpenCV calls to write their output
// into.
func NewEmpty(tracker MemoryTracker, tag string) *Mat {
	return wrap(gocv.NewMat(), tracker, tag)
}

// Own takes ownership of m. An empty m is closed and rejected.
func Own(m gocv.Mat, tracker MemoryTracker, tag string) (*Mat, error) {
	if m.Empty() {
		m.Close()
		return nil, errors.Errorf("%s: OpenCV returned an empty Mat", tag)
	}
	return wrap(m, tracker, tag), nil
}

func wrap(m gocv.Mat, tracker MemoryTracker, tag string) *Mat {
	sm := &Mat{
		mat:     m,
		isValid: 1,
		id:      atomic.AddUint64(&nextMatID, 1),
		tracker: tracker,
		tag:     tag,
	}
	if tracker != nil {
		tracker.TrackAllocation(sm.id, byteSize(m), tag)
	}
	runtime.SetFinalizer(sm, (*Mat).finalize)
	return sm
}

func (sm *Mat) IsValid() bool {
	return atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	return !sm.IsValid() || sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Cols()
}

func (sm *Mat) Channels() int {
	if !sm.IsValid() {
		return 0
	}
	return sm.mat.Channels()
}

// Mat returns the wrapped value for passing as a source argument.
func (sm *Mat) Mat() gocv.Mat { return sm.mat }

// Ptr returns the wrapped value for passing as a destination argument.
func (sm *Mat) Ptr() *gocv.Mat { return &sm.mat }

// Bytes copies the pixel data out of the Mat.
func (sm *Mat) Bytes() ([]byte, error) {
	if err := ValidateMatForOperation(sm, "read pixels"); err != nil {
		return nil, err
	}
	return sm.mat.ToBytes(), nil
}

func (sm *Mat) Close() {
	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		if sm.tracker != nil {
			sm.tracker.TrackDeallocation(sm.id, byteSize(sm.mat), sm.tag)
		}
		sm.mat.Close()
		runtime.SetFinalizer(sm, nil)
	}
}

func byteSize(m gocv.Mat) int64 {
	return int64(m.Total()) * int64(m.ElemSize())
}

func (sm *Mat) finalize() {
	sm.Close()
}

// Scope collects the Mats created while processing one image so they can be
// released together.
type Scope struct {
	tracker MemoryTracker
	mu      sync.Mutex
	mats    []*Mat
}

func NewScope(tracker MemoryTracker) *Scope {
	return &Scope{tracker: tracker}
}

func (s *Scope) Track(m *Mat) *Mat {
	s.mu.Lock()
	s.mats = append(s.mats, m)
	s.mu.Unlock()
	return m
}

func (s *Scope) NewEmpty(tag string) *Mat {
	return s.Track(NewEmpty(s.tracker, tag))
}

func (s *Scope) NewMat(rows, cols int, matType gocv.MatType, tag string) (*Mat, error) {
	m, err := NewMat(rows, cols, matType, s.tracker, tag)
	if err != nil {
		return nil, err
	}
	return s.Track(m), nil
}

func (s *Scope) Own(m gocv.Mat, tag string) (*Mat, error) {
	sm, err := Own(m, s.tracker, tag)
	if err != nil {
		return nil, err
	}
	return s.Track(sm), nil
}

func (s *Scope) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.mats) - 1; i >= 0; i-- {
		s.mats[i].Close()
	}
	s.mats = nil
}
