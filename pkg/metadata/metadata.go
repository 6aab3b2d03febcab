// Package metadata serializes generated pages.
//
// A page's metadata document is everything needed to render it again: the
// panel tree with coordinates and flags, the assigned images and every
// speech bubble with its placement and transforms. Documents carry a
// schema version and are written as indented JSON or as BSON.
//
// # JSON Format
//
//	{
//	  "schema_version": 1,
//	  "name": "8e3c...",
//	  "coordinates": [[0, 0], [1600, 0], [1600, 2400], [0, 2400], [0, 0]],
//	  "orientation": "",
//	  "non_rect": false,
//	  "sliced": false,
//	  "no_render": false,
//	  "image": null,
//	  "children": [ ... ],
//	  "speech_bubbles": [],
//	  "num_panels": 3,
//	  "page_type": "vh",
//	  "page_size": [1600, 2400],
//	  "background": null
//	}
//
// Conversion between a [panel.Page] and a [Page] document is lossless except
// for the page's leaf cache, which is rebuilt on demand.
package metadata

import (
	"github.com/matzehuels/mangaforge/pkg/bubble"
)

// SchemaVersion is the version written into new documents.
const SchemaVersion = 1

// Format is a metadata encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatBSON Format = "bson"
)

// Formats lists the supported encodings.
var Formats = []string{string(FormatJSON), string(FormatBSON)}

// Page is the document of one page. The root panel's fields are inlined.
type Page struct {
	SchemaVersion int `json:"schema_version" bson:"schema_version"`
	Panel         `bson:",inline"`

	NumPanels  int       `json:"num_panels" bson:"num_panels"`
	PageType   string    `json:"page_type" bson:"page_type"`
	PageSize   []float64 `json:"page_size" bson:"page_size"`
	Background *string   `json:"background" bson:"background"`
}

// Panel is the document of one panel and its subtree.
type Panel struct {
	Name          string      `json:"name" bson:"name"`
	Coordinates   [][]float64 `json:"coordinates" bson:"coordinates"`
	Orientation   string      `json:"orientation" bson:"orientation"`
	NonRect       bool        `json:"non_rect" bson:"non_rect"`
	Sliced        bool        `json:"sliced" bson:"sliced"`
	NoRender      bool        `json:"no_render" bson:"no_render"`
	Image         *string     `json:"image" bson:"image"`
	Children      []Panel     `json:"children" bson:"children"`
	SpeechBubbles []Bubble    `json:"speech_bubbles" bson:"speech_bubbles"`
}

// Bubble is the document of one speech bubble.
type Bubble struct {
	Texts             []map[string]string  `json:"texts" bson:"texts"`
	TextIndices       []int                `json:"text_indices" bson:"text_indices"`
	Language          string               `json:"language,omitempty" bson:"language,omitempty"`
	Font              string               `json:"font" bson:"font"`
	FontSize          int                  `json:"font_size" bson:"font_size"`
	SpeechBubble      string               `json:"speech_bubble" bson:"speech_bubble"`
	WritingAreas      []bubble.WritingArea `json:"writing_areas" bson:"writing_areas"`
	Location          []int                `json:"location" bson:"location"`
	Width             int                  `json:"width" bson:"width"`
	Height            int                  `json:"height" bson:"height"`
	Transforms        []string             `json:"transforms" bson:"transforms"`
	TransformMetadata map[string]float64   `json:"transform_metadata" bson:"transform_metadata"`
	TextOrientation   string               `json:"text_orientation" bson:"text_orientation"`
}
