// Package lcms converts images between ICC profiles with Little CMS 2.
package lcms

/*
#cgo pkg-config: lcms2
#include <lcms2.h>
#include <stdlib.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/davesmith10/stylebatch/internal/ir"
)

// Version returns the encoded CMM version from lcms2.
func Version() int {
	return int(C.cmsGetEncodedCMMversion())
}

func pixelType(m ir.Mode) (C.cmsUInt32Number, error) {
	switch m {
	case ir.ModeRGB:
		return C.TYPE_RGB_8, nil
	case ir.ModeCMYK:
		return C.TYPE_CMYK_8, nil
	case ir.ModeGray:
		return C.TYPE_GRAY_8, nil
	default:
		return 0, fmt.Errorf("unsupported pixel mode %s", m)
	}
}

// Transform is a compiled lcms2 transform between two fixed pixel modes.
type Transform struct {
	handle C.cmsHTRANSFORM
	in     ir.Mode
	out    ir.Mode
}

func openProfile(data []byte, role string) (C.cmsHPROFILE, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("lcms2: %s profile is empty", role)
	}
	h := C.cmsOpenProfileFromMem(unsafe.Pointer(&data[0]), C.cmsUInt32Number(len(data)))
	if h == nil {
		return nil, fmt.Errorf("lcms2: cannot open %s profile", role)
	}
	return h, nil
}

// NewTransform compiles a transform from raw ICC data. lcms2 rejects mode
// pairs that disagree with the profiles' color spaces.
func NewTransform(srcICC, dstICC []byte, in, out ir.Mode, intent int) (*Transform, error) {
	inType, err := pixelType(in)
	if err != nil {
		return nil, err
	}
	outType, err := pixelType(out)
	if err != nil {
		return nil, err
	}

	src, err := openProfile(srcICC, "source")
	if err != nil {
		return nil, err
	}
	defer C.cmsCloseProfile(src)
	dst, err := openProfile(dstICC, "destination")
	if err != nil {
		return nil, err
	}
	defer C.cmsCloseProfile(dst)

	h := C.cmsCreateTransform(src, inType, dst, outType, C.cmsUInt32Number(intent), C.cmsFLAGS_NOCACHE)
	if h == nil {
		return nil, fmt.Errorf("lcms2: no %s to %s transform for these profiles", in, out)
	}
	t := &Transform{handle: h, in: in, out: out}
	runtime.SetFinalizer(t, (*Transform).Close)
	return t, nil
}

// Apply returns img converted to the output mode. Pix is tightly packed,
// so the whole buffer goes through lcms2 in one call.
func (t *Transform) Apply(img *ir.Image) (*ir.Image, error) {
	if img.Mode != t.in {
		return nil, fmt.Errorf("lcms2: transform takes %s pixels, got %s", t.in, img.Mode)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if t.handle == nil {
		return nil, errors.New("lcms2: transform is closed")
	}

	res := ir.New(img.Width, img.Height, t.out)
	C.cmsDoTransform(t.handle,
		unsafe.Pointer(&img.Pix[0]),
		unsafe.Pointer(&res.Pix[0]),
		C.cmsUInt32Number(img.Width*img.Height))
	runtime.KeepAlive(t)
	runtime.KeepAlive(img)
	return res, nil
}

// Close frees the transform. It is safe to call more than once.
func (t *Transform) Close() {
	if t.handle != nil {
		C.cmsDeleteTransform(t.handle)
		t.handle = nil
	}
}
