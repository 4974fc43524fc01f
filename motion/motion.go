// activity-surveil - activity triggered audio and video recording
//  Copyright (C) 2024, Shepherd1226
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package motion scores video frames for changed area between consecutive
// frames: absolute difference, grayscale, blur, binary threshold, dilate,
// then the largest contour area in pixels.
package motion

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/Shepherd1226/Activity-Surveil/capture"
)

// NewDetector returns a Detector. The caller must Close it to release the
// OpenCV buffers.
func NewDetector(conf Config) *Detector {
	return &Detector{
		conf:   conf,
		prev:   gocv.NewMat(),
		diff:   gocv.NewMat(),
		gray:   gocv.NewMat(),
		thresh: gocv.NewMat(),
		kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Detector holds the previous frame and scratch buffers between ticks.
// Not safe for concurrent use; the controller loop is the only caller.
type Detector struct {
	conf     Config
	prev     gocv.Mat
	diff     gocv.Mat
	gray     gocv.Mat
	thresh   gocv.Mat
	kernel   gocv.Mat
	havePrev bool
}

// Score returns the largest changed-contour area between the given frame
// and the previous one. ok is false on the first frame, which has nothing
// to compare against.
func (d *Detector) Score(frame *capture.Frame) (score float64, ok bool) {
	if !d.havePrev {
		frame.Mat.CopyTo(&d.prev)
		d.havePrev = true
		return 0, false
	}

	gocv.AbsDiff(d.prev, frame.Mat, &d.diff)
	gocv.CvtColor(d.diff, &d.gray, gocv.ColorBGRToGray)
	k := d.conf.BlurKernel
	gocv.GaussianBlur(d.gray, &d.gray, image.Pt(k, k), 0, 0, gocv.BorderDefault)
	gocv.Threshold(d.gray, &d.thresh, float32(d.conf.DeltaThresh), 255, gocv.ThresholdBinary)
	for i := 0; i < d.conf.DilateIterations; i++ {
		gocv.Dilate(d.thresh, &d.thresh, d.kernel)
	}

	contours := gocv.FindContours(d.thresh, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	var maxArea float64
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > maxArea {
			maxArea = area
		}
	}

	frame.Mat.CopyTo(&d.prev)
	return maxArea, true
}

func (d *Detector) Close() {
	d.prev.Close()
	d.diff.Close()
	d.gray.Close()
	d.thresh.Close()
	d.kernel.Close()
}
