package annotations

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bigmler/bigmler/pkg/util"
)

const yoloExtension = ".txt"

// ConvertYOLO translates the YOLO .txt files found under annotationsDir
// into boxes. Each file is paired with the image sharing its base name.
// Images are looked up in imagesDir, or next to the annotations when empty.
func ConvertYOLO(annotationsDir string, imagesDir string, outputFile string, log MessageLogger) (*Conversion, error) {
	if imagesDir == "" || !util.DirExists(imagesDir) {
		imagesDir = annotationsDir
	}

	c, err := newConverter(outputFile, log)
	if err != nil {
		return nil, err
	}
	defer c.close()

	c.message(fmt.Sprintf("Start converting YOLO files in %s\n", annotationsDir))

	images, err := util.ListFiles(imagesDir, ImageExtensions...)
	if err != nil {
		return nil, err
	}
	for _, image := range images {
		c.addImage(image)
	}

	yoloFiles, err := util.ListFiles(annotationsDir, yoloExtension)
	if err != nil {
		return nil, err
	}
	for _, yoloFile := range yoloFiles {
		c.logf("%s\n", yoloFile)
	}
	c.logf("\n")

	for _, yoloFile := range yoloFiles {
		imageFile := c.matchImage(yoloFile)
		if imageFile == "" {
			continue
		}

		c.logf("converting for: %s\n", imageFile)
		width, height, err := imageSize(imageFile)
		if err != nil {
			c.warnf("Warning: failed to read image file %s: %v\n\n", imageFile, err)
			continue
		}
		c.addImage(imageFile)

		lines, err := util.ReadLines(yoloFile)
		if err != nil {
			return nil, err
		}

		file := util.Relative(imagesDir, imageFile)
		c.logf("taking as filename: %s\n", file)
		annotations := ImageAnnotations{File: file, Boxes: []Box{}}
		for _, line := range lines {
			box, err := parseYOLOLine(line, width, height)
			if err != nil {
				c.warnf("Warning: %v in %s\n", err, yoloFile)
				continue
			}
			c.logf("%s => (%d, %d, %d, %d)\n", line, box.Xmin, box.Ymin, box.Xmax, box.Ymax)
			if box.Degenerate() {
				c.warnf("Warning: empty box %q in %s\n", line, yoloFile)
			}
			annotations.Boxes = append(annotations.Boxes, box)
		}
		c.conversion.Annotations = append(c.conversion.Annotations, annotations)
	}

	return c.finish()
}

// matchImage returns the last image with the same base name as yoloFile.
func (c *converter) matchImage(yoloFile string) string {
	base := strings.TrimSuffix(yoloFile, filepath.Ext(yoloFile))
	matches, _ := filepath.Glob(globEscape(base) + ".*")

	imageFile := ""
	found := false
	for _, match := range matches {
		if strings.HasSuffix(match, yoloExtension) {
			continue
		}
		found = true
		if util.HasExtension(match, ImageExtensions...) {
			imageFile = match
		} else {
			c.warnf("Warning: unknown image file for %s\n%s\n", yoloFile, match)
		}
	}
	if !found {
		c.logf(" Warning: no image file for %s\n", yoloFile)
	}
	return imageFile
}

func parseYOLOLine(line string, width int, height int) (Box, error) {
	items := strings.Fields(line)
	if len(items) < 5 {
		return Box{}, fmt.Errorf("wrong annotation %q", line)
	}
	values := make([]float64, 4)
	for i := range values {
		v, err := strconv.ParseFloat(items[i+1], 64)
		if err != nil {
			return Box{}, fmt.Errorf("wrong annotation %q", line)
		}
		values[i] = v
	}
	return YOLOBox(items[0], values[0], values[1], values[2], values[3], width, height), nil
}

// YOLOBox converts a YOLO (center, size) annotation into pixel corners.
// Whole-number values are taken as pixels. Normalized values are scaled to
// the image size, the center snapped to the nearest half pixel and the size
// adjusted so that the box stays centered on it.
func YOLOBox(label string, xCenter, yCenter, width, height float64, imageWidth, imageHeight int) Box {
	var cx, cy, w, h float64
	if isWhole(xCenter) && isWhole(yCenter) && isWhole(width) && isWhole(height) {
		cx, cy, w, h = xCenter, yCenter, width, height
	} else {
		cx = snapCenter(float64(imageWidth) * xCenter)
		cy = snapCenter(float64(imageHeight) * yCenter)
		w = properSize(cx, float64(imageWidth)*width)
		h = properSize(cy, float64(imageHeight)*height)
	}

	xmin := int(cx - w/2)
	ymin := int(cy - h/2)
	return Box{
		Label: label,
		Xmin:  xmin,
		Ymin:  ymin,
		Xmax:  int(float64(xmin) + w),
		Ymax:  int(float64(ymin) + h),
	}
}

func isWhole(v float64) bool {
	return v == math.Trunc(v)
}

func snapCenter(v float64) float64 {
	base := math.Trunc(v)
	switch decimal := v - base; {
	case decimal <= 0.25:
		return base
	case decimal <= 0.75:
		return base + 0.5
	default:
		return base + 1
	}
}

// properSize rounds size to an even number of pixels for a whole center and
// to an odd one for a half-pixel center.
func properSize(center float64, size float64) float64 {
	rounded := math.RoundToEven(size)
	even := math.Mod(rounded, 2) == 0
	if isWhole(center) == even {
		return rounded
	}
	return rounded + 1
}

func globEscape(path string) string {
	replacer := strings.NewReplacer("*", "\\*", "?", "\\?", "[", "\\[")
	return replacer.Replace(path)
}
