package render

import (
	"image"
	"sync"
	"sync/atomic"
)

// Frame is an off-screen raster owned by one capture. It is independent of
// any other frame, so encoding one never races with drawing another.
// Release returns its pixels to a pool; the frame must not be used after.
type Frame struct {
	img      *image.RGBA
	width    int
	height   int
	scale    float64
	released atomic.Bool
}

var (
	pixelPool  sync.Pool
	liveFrames atomic.Int64
)

// NewFrame allocates a w×h frame, reusing pooled pixels when large enough.
// Width and Height report the logical size; the pixel size is w*scale.
func NewFrame(w, h int, scale float64) *Frame {
	pw, ph := int(float64(w)*scale+0.5), int(float64(h)*scale+0.5)
	n := pw * ph * 4
	var pix []uint8
	if buf, ok := pixelPool.Get().(*[]uint8); ok && cap(*buf) >= n {
		pix = (*buf)[:n]
		clear(pix)
	} else {
		if ok {
			pixelPool.Put(buf)
		}
		pix = make([]uint8, n)
	}
	liveFrames.Add(1)
	return &Frame{
		img:    &image.RGBA{Pix: pix, Stride: pw * 4, Rect: image.Rect(0, 0, pw, ph)},
		width:  w,
		height: h,
		scale:  scale,
	}
}

// Image returns the pixels, or nil once released.
func (f *Frame) Image() *image.RGBA {
	if f.released.Load() {
		return nil
	}
	return f.img
}

// Width is the logical width before the scale multiplier.
func (f *Frame) Width() int { return f.width }

// Height is the logical height before the scale multiplier.
func (f *Frame) Height() int { return f.height }

// Scale is the pixel multiplier.
func (f *Frame) Scale() float64 { return f.scale }

// Released reports whether Release was called.
func (f *Frame) Released() bool { return f.released.Load() }

// Release hands the pixels back to the pool. Calling it twice is a no-op.
func (f *Frame) Release() {
	if !f.released.CompareAndSwap(false, true) {
		return
	}
	liveFrames.Add(-1)
	pix := f.img.Pix
	pixelPool.Put(&pix)
}

// LiveFrames returns the number of frames not yet released.
func LiveFrames() int64 { return liveFrames.Load() }
