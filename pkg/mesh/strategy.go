package mesh

// LodStrategy maps user-facing LOD values (distances, pixel counts) to values
// that increase with decreasing detail.
type LodStrategy interface {
	Name() string
	BaseValue() float32
	TransformUserValue(v float32) float32
}

// LodUsage is one row of a mesh's LOD table.
type LodUsage struct {
	UserValue  float32
	Value      float32
	ManualName string // set for levels substituted by another mesh
}

// DistanceStrategy switches LOD by camera distance. Values are squared distances.
type DistanceStrategy struct{}

func (DistanceStrategy) Name() string       { return "distance" }
func (DistanceStrategy) BaseValue() float32 { return 0 }

func (DistanceStrategy) TransformUserValue(v float32) float32 {
	return v * v
}

// PixelCountStrategy switches LOD by the screen area a mesh covers.
// Values are negated so that they increase as detail drops.
type PixelCountStrategy struct{}

func (PixelCountStrategy) Name() string { return "pixel_count" }

func (PixelCountStrategy) BaseValue() float32 {
	return -maxPixelCount
}

func (PixelCountStrategy) TransformUserValue(v float32) float32 {
	return -v
}

const maxPixelCount = float32(1 << 30)

// StrategyByName returns a strategy for "distance" or "pixel_count".
func StrategyByName(name string) (LodStrategy, bool) {
	switch name {
	case "distance", "":
		return DistanceStrategy{}, true
	case "pixel_count", "pixels":
		return PixelCountStrategy{}, true
	default:
		return nil, false
	}
}
