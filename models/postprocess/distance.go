package postprocess

// Level is a coarse proximity class.
type Level string

const (
	// LevelClose means the object fills a large part of the frame.
	LevelClose Level = "close"
	// LevelMedium means the object is at a medium distance.
	LevelMedium Level = "medium"
	// LevelFar means the object is small in the frame.
	LevelFar Level = "far"
)

const (
	// CloseArea is the area above which an object is close.
	CloseArea float32 = 0.20
	// MediumArea is the area above which an object is at a medium distance.
	MediumArea float32 = 0.05
)

// DistanceEstimate is a proximity class with a human-readable label.
type DistanceEstimate struct {
	Level Level  `json:"level"`
	Label string `json:"label"`
}

// Label returns the default English label of the level.
func (l Level) Label() string {
	switch l {
	case LevelClose:
		return "close"
	case LevelMedium:
		return "medium distance"
	default:
		return "far"
	}
}

// EstimateDistance classifies proximity from the normalized box area alone.
// Boundary areas belong to the farther bucket: 0.20 is medium, 0.05 is far.
func EstimateDistance(b BBox) DistanceEstimate {
	area := b.Area()

	level := LevelFar
	switch {
	case area > CloseArea:
		level = LevelClose
	case area > MediumArea:
		level = LevelMedium
	}

	return DistanceEstimate{Level: level, Label: level.Label()}
}
