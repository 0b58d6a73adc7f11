// Package capture produces the still frame and world position for a selection.
//
// Sources never wait on hardware: FileSource reads the frame that is already on
// disk and Buffer returns the last frame pushed by a remote client. The world
// position comes from the device hit carried by the selection or, when absent,
// from a PlaneSurface placed in front of the camera.
package capture
