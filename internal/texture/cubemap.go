package texture

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// CubeFace indexes faces in GL order: +X, -X, +Y, -Y, +Z, -Z.
type CubeFace int

const (
	CubeRight CubeFace = iota
	CubeLeft
	CubeTop
	CubeBottom
	CubeFront
	CubeBack
)

// crossCells locates each face in a 4x3 horizontal cross, in face-size units.
//
//	    [T]
//	[L] [F] [R] [B]
//	    [D]
var crossCells = [6]image.Point{
	CubeRight:  {2, 1},
	CubeLeft:   {0, 1},
	CubeTop:    {1, 0},
	CubeBottom: {1, 2},
	CubeFront:  {1, 1},
	CubeBack:   {3, 1},
}

// SplitCross cuts a horizontal-cross sky image into six square faces.
// The image must be 4 faces wide and 3 faces tall.
func SplitCross(img image.Image) ([6]*image.RGBA, error) {
	var faces [6]*image.RGBA
	b := img.Bounds()
	size := b.Dx() / 4
	if size == 0 || b.Dx() != size*4 || b.Dy() != size*3 {
		return faces, fmt.Errorf("sky image %dx%d is not a 4x3 cross", b.Dx(), b.Dy())
	}
	for i, cell := range crossCells {
		face := image.NewRGBA(image.Rect(0, 0, size, size))
		src := image.Pt(b.Min.X+cell.X*size, b.Min.Y+cell.Y*size)
		draw.Draw(face, face.Bounds(), img, src, draw.Src)
		faces[i] = face
	}
	return faces, nil
}
