// Package models - Definitions for model output class sets.
package models

import "fmt"

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
}

// OutputClassSet ties a family to its full list of labels.
type OutputClassSet struct {
	// Class set identifier.
	Style Family
	// Classes that are supported and mappable, ordered by Index.
	Classes []OutputClass
	// nameToIdx for fast lookup by name
	nameToIdx map[string]int
}

// Family identifies the naming convention / dataset of a class set.
type Family string

const (
	// FamilyYOLO is the 80 COCO classes, no background.
	FamilyYOLO Family = "yolo"
	// FamilyCustom is a label list supplied with the model.
	FamilyCustom Family = "custom"
)

// NewOutputClassSet builds a class set from labels ordered by model index.
func NewOutputClassSet(style Family, names ...string) *OutputClassSet {
	s := &OutputClassSet{Style: style, Classes: make([]OutputClass, len(names))}
	for i, name := range names {
		s.Classes[i] = OutputClass{Index: i, Name: name}
	}
	s.BuildNameIndexMap()
	return s
}

// BuildNameIndexMap builds or rebuilds the name->index map.
func (s *OutputClassSet) BuildNameIndexMap() {
	s.nameToIdx = make(map[string]int, len(s.Classes))
	for _, c := range s.Classes {
		s.nameToIdx[c.Name] = c.Index
	}
}

// Len returns the number of classes the model emits.
func (s *OutputClassSet) Len() int {
	return len(s.Classes)
}

// Name returns the label for a model index.
func (s *OutputClassSet) Name(idx int) (string, error) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", fmt.Errorf("index %d out of range for style %q", idx, s.Style)
	}
	return s.Classes[idx].Name, nil
}

// Index returns the model index for a label.
func (s *OutputClassSet) Index(name string) (int, error) {
	idx, ok := s.nameToIdx[name]
	if !ok {
		return 0, fmt.Errorf("class %q not found in style %q", name, s.Style)
	}
	return idx, nil
}

// Recognized returns a positional label list (index -> label) covering every class
// of the set, where only the allowed names keep their label and every other slot is
// the empty string. An empty allow list keeps every label.
//
// Arguments:
//   - allow: The class names that should be reported.
//
// Returns:
//   - []string: The positional recognized label list.
//   - error: An error if an allowed name is not part of the set.
func (s *OutputClassSet) Recognized(allow []string) ([]string, error) {
	out := make([]string, len(s.Classes))
	if len(allow) == 0 {
		for i := range out {
			name, err := s.Name(i)
			if err != nil {
				return nil, err
			}
			out[i] = name
		}
		return out, nil
	}
	for _, name := range allow {
		idx, err := s.Index(name)
		if err != nil {
			return nil, err
		}
		out[idx] = name
	}
	return out, nil
}

// YOLOClasses are the 80 COCO labels emitted by YOLOv8 models, in output order.
var YOLOClasses = NewOutputClassSet(FamilyYOLO,
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
)

// NavigationClasses is the curated set of obstacles narrated to the user.
var NavigationClasses = []string{
	"person", "bicycle", "car", "motorcycle", "bus", "truck", "traffic light", "cat", "dog", "bird",
}
