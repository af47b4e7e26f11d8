package annotations

import (
	"encoding/json"
	"fmt"
	"image"
	"os"

	// image formats accepted for annotated images
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tidwall/gjson"
)

const (
	FileAttribute  = "file"
	BoxesAttribute = "boxes"

	AnnotationsFilename = "annotations.json"
	MetadataFilename    = "metadata.json"

	YOLO = "YOLO"
	VOC  = "VOC"
)

var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".tiff", ".tif", ".bmp", ".webp"}

type MessageLogger interface {
	LogMessage(message string, console bool)
}

// Box is a labeled region in pixel coordinates.
type Box struct {
	Label string `json:"label"`
	Xmin  int    `json:"xmin"`
	Ymin  int    `json:"ymin"`
	Xmax  int    `json:"xmax"`
	Ymax  int    `json:"ymax"`
}

func (b Box) Degenerate() bool {
	return b.Xmin >= b.Xmax || b.Ymin >= b.Ymax
}

type ImageAnnotations struct {
	File  string `json:"file"`
	Boxes []Box  `json:"boxes"`
}

// NewField is a field added to the source by the annotations.
type NewField struct {
	Name   string `json:"name"`
	Optype string `json:"optype"`
}

// Conversion is the result of translating an annotations directory.
type Conversion struct {
	Annotations []ImageAnnotations
	// Images holds the paths of the annotated images.
	Images   []string
	Warnings int
	LogFile  string
}

func WriteAnnotations(path string, annotations []ImageAnnotations) error {
	if annotations == nil {
		annotations = []ImageAnnotations{}
	}
	content, err := json.MarshalIndent(annotations, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0644)
}

func imageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}

func readAnnotations(path string) (gjson.Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to find the annotations file: %w", err)
	}
	if !gjson.ValidBytes(content) {
		return gjson.Result{}, fmt.Errorf("no valid json found in the annotations file %s", path)
	}
	return gjson.ParseBytes(content), nil
}

// FieldsFromAnnotations infers the fields that will hold the annotations in
// an annotations file, in order of appearance.
func FieldsFromAnnotations(path string) ([]NewField, error) {
	annotations, err := readAnnotations(path)
	if err != nil {
		return nil, err
	}

	var newFields []NewField
	seen := map[string]bool{}
	annotations.ForEach(func(_, annotation gjson.Result) bool {
		if !annotation.Get(FileAttribute).Exists() {
			return true
		}
		annotation.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if name == FileAttribute || seen[name] {
				return true
			}
			seen[name] = true
			newFields = append(newFields, NewField{Name: name, Optype: inferOptype(value)})
			return true
		})
		return true
	})
	return newFields, nil
}

// LabelsFromAnnotations returns the distinct labels found in each field.
func LabelsFromAnnotations(path string) (map[string][]string, error) {
	annotations, err := readAnnotations(path)
	if err != nil {
		return nil, err
	}

	labels := map[string][]string{}
	add := func(field string, label string) {
		for _, l := range labels[field] {
			if l == label {
				return
			}
		}
		labels[field] = append(labels[field], label)
	}

	annotations.ForEach(func(_, annotation gjson.Result) bool {
		if !annotation.Get(FileAttribute).Exists() {
			return true
		}
		annotation.ForEach(func(key, value gjson.Result) bool {
			field := key.String()
			if field == FileAttribute {
				return true
			}
			if _, ok := labels[field]; !ok {
				labels[field] = []string{}
			}
			switch {
			case value.IsObject():
				add(field, value.Get("label").String())
			case value.IsArray():
				value.ForEach(func(_, item gjson.Result) bool {
					add(field, item.Get("label").String())
					return true
				})
			case value.Type == gjson.String:
				add(field, value.String())
			}
			return true
		})
		return true
	})
	return labels, nil
}

func inferOptype(value gjson.Result) string {
	switch {
	case value.Type == gjson.Number:
		return "numeric"
	case value.IsArray():
		elements := value.Array()
		items := len(elements) > 0
		for _, item := range elements {
			items = items && item.Type == gjson.String
		}
		if items {
			return "items"
		}
		return "regions"
	case value.IsObject():
		return "regions"
	}
	return "categorical"
}
