package postprocess

// Count is the number of detections of one class in a frame.
type Count struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

// Summary lists per-class counts in first-occurrence order.
type Summary []Count

// Summarize counts detections per class, keeping the order in which each class
// first appears.
func Summarize(detections []Detection) Summary {
	index := make(map[string]int)
	summary := Summary{}
	for _, d := range detections {
		if i, ok := index[d.Class]; ok {
			summary[i].Count++
			continue
		}
		index[d.Class] = len(summary)
		summary = append(summary, Count{Class: d.Class, Count: 1})
	}
	return summary
}

// Total returns the number of detections behind the summary.
func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c.Count
	}
	return n
}

// Map returns the summary as class -> count.
func (s Summary) Map() map[string]int {
	m := make(map[string]int, len(s))
	for _, c := range s {
		m[c.Class] = c.Count
	}
	return m
}

// Nearest returns the detection with the largest box area. Ties keep the earliest.
func Nearest(detections []Detection) (Detection, bool) {
	if len(detections) == 0 {
		return Detection{}, false
	}
	nearest := detections[0]
	for _, d := range detections[1:] {
		if d.BBox.Area() > nearest.BBox.Area() {
			nearest = d
		}
	}
	return nearest, true
}
