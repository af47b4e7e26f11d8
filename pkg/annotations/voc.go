package annotations

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bigmler/bigmler/pkg/util"
)

type vocAnnotation struct {
	XMLName  xml.Name    `xml:"annotation"`
	Folder   string      `xml:"folder"`
	Filename string      `xml:"filename"`
	Path     string      `xml:"path"`
	Size     vocSize     `xml:"size"`
	Objects  []vocObject `xml:"object"`
}

type vocSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
}

type vocObject struct {
	Name   string `xml:"name"`
	BndBox struct {
		Xmin string `xml:"xmin"`
		Ymin string `xml:"ymin"`
		Xmax string `xml:"xmax"`
		Ymax string `xml:"ymax"`
	} `xml:"bndbox"`
}

// ConvertVOC translates the VOC .xml files in annotationsDir into boxes.
// Box coordinates are kept as given; degenerate boxes are only reported.
func ConvertVOC(annotationsDir string, imagesDir string, outputFile string, log MessageLogger) (*Conversion, error) {
	entries, err := os.ReadDir(annotationsDir)
	if err != nil {
		return nil, fmt.Errorf("cannot read the annotations directory: %w", err)
	}

	c, err := newConverter(outputFile, log)
	if err != nil {
		return nil, err
	}
	defer c.close()

	c.message(fmt.Sprintf("Start converting VOC files in %s\n", annotationsDir))

	baseDir := imagesDir
	if baseDir == "" {
		baseDir = annotationsDir
	} else if util.DirExists(imagesDir) {
		images, err := util.ListFiles(imagesDir, ImageExtensions...)
		if err != nil {
			return nil, err
		}
		for _, image := range images {
			c.addImage(image)
		}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}

		annotation, err := readVOC(filepath.Join(annotationsDir, entry.Name()))
		if err != nil {
			return nil, err
		}

		filename := annotation.Filename
		if annotation.Path != "" {
			filename = filepath.Base(filepath.FromSlash(strings.ReplaceAll(annotation.Path, "\\", "/")))
		}
		file := filepath.ToSlash(filepath.Join(annotation.Folder, filename))
		imageFile := filepath.Join(baseDir, filepath.FromSlash(file))
		if !util.FileExists(imageFile) {
			c.warnf("failed to find: %s\n", imageFile)
			continue
		}
		c.addImage(imageFile)

		c.logf("converting for: %s\n", imageFile)
		c.logf("taking as filename: %s\n", file)
		imageAnnotations := ImageAnnotations{File: file, Boxes: []Box{}}
		for _, object := range annotation.Objects {
			box, err := vocBox(object)
			if err != nil {
				return nil, fmt.Errorf("wrong bndbox in %s: %w", entry.Name(), err)
			}
			c.checkBox(imageFile, box)
			imageAnnotations.Boxes = append(imageAnnotations.Boxes, box)
		}
		c.conversion.Annotations = append(c.conversion.Annotations, imageAnnotations)
	}

	return c.finish()
}

func readVOC(path string) (*vocAnnotation, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	annotation := &vocAnnotation{}
	if err := xml.Unmarshal(content, annotation); err != nil {
		return nil, fmt.Errorf("wrong VOC file %s: %w", path, err)
	}
	return annotation, nil
}

func vocBox(object vocObject) (Box, error) {
	values := []string{object.BndBox.Xmin, object.BndBox.Ymin, object.BndBox.Xmax, object.BndBox.Ymax}
	coordinates := make([]int, len(values))
	for i, value := range values {
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return Box{}, err
		}
		coordinates[i] = v
	}
	return Box{
		Label: object.Name,
		Xmin:  coordinates[0],
		Ymin:  coordinates[1],
		Xmax:  coordinates[2],
		Ymax:  coordinates[3],
	}, nil
}

func (c *converter) checkBox(imageFile string, b Box) {
	if b.Xmin == b.Xmax || b.Ymin == b.Ymax {
		c.warnf("Possible bndbox error in %s:\n  min equal to max: (xmin, ymin, xmax, ymax):  (%d, %d, %d, %d)\n",
			imageFile, b.Xmin, b.Ymin, b.Xmax, b.Ymax)
	}
	if b.Xmin > b.Xmax || b.Ymin > b.Ymax {
		c.warnf("Possible bndbox error in %s:\n  min greater than max: (xmin, ymin, xmax, ymax):  (%d, %d, %d, %d)\n",
			imageFile, b.Xmin, b.Ymin, b.Xmax, b.Ymax)
	}
}
