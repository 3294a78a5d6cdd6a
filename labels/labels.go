// Package labels carries the detection post-processing that is not
// inference: the traffic class vocabulary, display colors and names, and
// confidence filtering applied before detections reach a tracker.
package labels

import (
	"image/color"

	"trafficwatch/mot"
)

// Unknown is the class name assigned to IDs outside the traffic vocabulary.
const Unknown = "unknown"

// DefaultMinConfidence is the default detector confidence threshold.
const DefaultMinConfidence = 0.25

// Traffic-related classes of the COCO vocabulary.
var classNames = map[int]string{
	0: "person",
	1: "bicycle",
	2: "car",
	3: "motorcycle",
	5: "bus",
	7: "truck",
}

// Display colors per class.
var classColors = map[string]color.RGBA{
	"person":     {R: 255, G: 128, B: 0, A: 255},
	"bicycle":    {R: 0, G: 255, B: 0, A: 255},
	"car":        {R: 255, G: 0, B: 0, A: 255},
	"motorcycle": {R: 0, G: 0, B: 255, A: 255},
	"bus":        {R: 255, G: 0, B: 255, A: 255},
	"truck":      {R: 0, G: 255, B: 255, A: 255},
}

var unknownColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// Plural labels used on the statistics surface.
var displayNames = map[string]string{
	"person":     "Pedestrians",
	"bicycle":    "Bicycles",
	"car":        "Cars",
	"motorcycle": "Motorcycles",
	"bus":        "Buses",
	"truck":      "Trucks",
}

// Name maps a class ID to its class name, or Unknown.
func Name(classID int) string {
	if name, ok := classNames[classID]; ok {
		return name
	}
	return Unknown
}

// Known reports whether the class ID belongs to the traffic vocabulary.
func Known(classID int) bool {
	_, ok := classNames[classID]
	return ok
}

// ColorFor returns the display color for a class name.
func ColorFor(className string) color.RGBA {
	if c, ok := classColors[className]; ok {
		return c
	}
	return unknownColor
}

// DisplayName returns the plural display label for a class name, falling
// back to the class name itself.
func DisplayName(className string) string {
	if name, ok := displayNames[className]; ok {
		return name
	}
	return className
}

// Filter drops detections below the confidence threshold or outside the
// traffic vocabulary, and normalizes ClassName from ClassID. The input
// order of the surviving detections is preserved, since track assignment
// depends on it.
func Filter(detections []mot.Detection, minConfidence float64) []mot.Detection {
	out := make([]mot.Detection, 0, len(detections))
	for _, det := range detections {
		if det.Confidence < minConfidence {
			continue
		}
		if !Known(det.ClassID) {
			continue
		}
		det.ClassName = Name(det.ClassID)
		out = append(out, det)
	}
	return out
}
