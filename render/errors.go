package render

import "github.com/cockroachdb/errors"

// Setup failures. Any of these aborts startup or a swapchain rebuild.
var (
	ErrSwapchainCreation   = errors.New("swapchain creation failed")
	ErrFramebufferCreation = errors.New("framebuffer creation failed")
	ErrCommandRecording    = errors.New("command recording failed")
	ErrSyncCreation        = errors.New("sync object creation failed")
	ErrPipelineCreation    = errors.New("pipeline creation failed")
)

// ErrFrameFailure marks a fence wait, submit or present error that is not
// caused by a stale surface. Rendering cannot continue after one.
var ErrFrameFailure = errors.New("frame failed")

// Stale surface signals reported by acquire or present. Both are recovered
// by rebuilding the swapchain.
var (
	ErrOutOfDate  = errors.New("surface out of date")
	ErrSuboptimal = errors.New("surface suboptimal")
)

// ErrZeroExtent is returned by a swapchain build while the surface has no
// area, as when the window is minimized. The build is retried later.
var ErrZeroExtent = errors.New("surface extent is zero")

// IsSetupFailure reports whether err came from building a device object.
func IsSetupFailure(err error) bool {
	return errors.IsAny(err,
		ErrSwapchainCreation,
		ErrFramebufferCreation,
		ErrCommandRecording,
		ErrSyncCreation,
		ErrPipelineCreation,
	)
}

// IsStaleSurface reports whether err asks for a swapchain rebuild.
func IsStaleSurface(err error) bool {
	return errors.IsAny(err, ErrOutOfDate, ErrSuboptimal)
}

func stageFailure(kind error, err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), kind)
}

func frameFailure(err error, stage string) error {
	return errors.Mark(errors.Wrap(err, stage), ErrFrameFailure)
}
