package meshing

import "github.com/go-gl/mathgl/mgl32"

// Face identifies one of the six axis-aligned sides of a voxel.
type Face uint8

const (
	FaceTop Face = iota
	FaceBottom
	FaceLeft
	FaceRight
	FaceFront
	FaceBack

	faceCount
)

var faceNames = [faceCount]string{"top", "bottom", "left", "right", "front", "back"}

func (f Face) String() string {
	if f < faceCount {
		return faceNames[f]
	}
	return "unknown"
}

// Faces lists every face in emission order.
var Faces = [faceCount]Face{FaceTop, FaceBottom, FaceLeft, FaceRight, FaceFront, FaceBack}

// corner indexes faceData.corners; the same order picks the atlas UV corner.
const (
	cornerBL = iota
	cornerBR
	cornerTR
	cornerTL
)

// faceData describes one cube face around a voxel centred on the origin.
// Corners are listed bottom-left, bottom-right, top-right, top-left as seen
// from outside the cube, so (BL,BR,TR) and (TR,TL,BL) wind counter-clockwise.
type faceData struct {
	normal   mgl32.Vec3
	offset   [3]int
	vertical bool // the neighbour across this face is above or below
	corners  [4]mgl32.Vec3
}

const half = 0.5

var faceTable = [faceCount]faceData{
	FaceTop: {
		normal:   mgl32.Vec3{0, 1, 0},
		offset:   [3]int{0, 1, 0},
		vertical: true,
		// texture up points toward -Z
		corners: [4]mgl32.Vec3{{-half, half, half}, {half, half, half}, {half, half, -half}, {-half, half, -half}},
	},
	FaceBottom: {
		normal:   mgl32.Vec3{0, -1, 0},
		offset:   [3]int{0, -1, 0},
		vertical: true,
		corners:  [4]mgl32.Vec3{{-half, -half, -half}, {half, -half, -half}, {half, -half, half}, {-half, -half, half}},
	},
	FaceLeft: {
		normal:  mgl32.Vec3{-1, 0, 0},
		offset:  [3]int{-1, 0, 0},
		corners: [4]mgl32.Vec3{{-half, -half, -half}, {-half, -half, half}, {-half, half, half}, {-half, half, -half}},
	},
	FaceRight: {
		normal:  mgl32.Vec3{1, 0, 0},
		offset:  [3]int{1, 0, 0},
		corners: [4]mgl32.Vec3{{half, -half, half}, {half, -half, -half}, {half, half, -half}, {half, half, half}},
	},
	FaceFront: {
		normal:  mgl32.Vec3{0, 0, 1},
		offset:  [3]int{0, 0, 1},
		corners: [4]mgl32.Vec3{{-half, -half, half}, {half, -half, half}, {half, half, half}, {-half, half, half}},
	},
	FaceBack: {
		normal:  mgl32.Vec3{0, 0, -1},
		offset:  [3]int{0, 0, -1},
		corners: [4]mgl32.Vec3{{half, -half, -half}, {-half, -half, -half}, {-half, half, -half}, {half, half, -half}},
	},
}

// quadOrder is the corner sequence of the two triangles of a face.
var quadOrder = [VerticesPerFace]int{cornerBL, cornerBR, cornerTR, cornerTR, cornerTL, cornerBL}

// Normal returns the outward unit normal of the face.
func (f Face) Normal() mgl32.Vec3 {
	return faceTable[f].normal
}

// Offset returns the neighbour cell offset across the face.
func (f Face) Offset() (dx, dy, dz int) {
	o := faceTable[f].offset
	return o[0], o[1], o[2]
}
