package annotations

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	messages []string
}

func (r *recorder) LogMessage(message string, console bool) {
	r.messages = append(r.messages, message)
}

func TestYOLOBox(t *testing.T) {
	t.Run("YOLOBox() - whole numbers are pixels", testYOLOBoxWholeFunc())
	t.Run("YOLOBox() - normalized values", testYOLOBoxNormalizedFunc())
	t.Run("YOLOBox() - non degenerate boxes", testYOLOBoxNonDegenerateFunc())
}

func TestConvert(t *testing.T) {
	t.Run("ConvertYOLO()", testConvertYOLOFunc())
	t.Run("ConvertVOC()", testConvertVOCFunc())
	t.Run("ConvertVOC() - degenerate boxes", testConvertVOCDegenerateFunc())
}

func TestAnnotationsFile(t *testing.T) {
	t.Run("FieldsFromAnnotations()", testFieldsFromAnnotationsFunc())
	t.Run("LabelsFromAnnotations()", testLabelsFromAnnotationsFunc())
	t.Run("BuildMetadata()", testBuildMetadataFunc())
}

func writeImage(t *testing.T, path string, width int, height int) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
}

func writeText(t *testing.T, path string, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testYOLOBoxWholeFunc() func(*testing.T) {
	return func(t *testing.T) {
		assert.Equal(t, Box{Label: "dog", Xmin: 40, Ymin: 35, Xmax: 60, Ymax: 45}, YOLOBox("dog", 50, 40, 20, 10, 100, 80))
		assert.Equal(t, Box{Label: "dog", Xmin: 39, Ymin: 34, Xmax: 60, Ymax: 45}, YOLOBox("dog", 50, 40, 21, 11, 100, 80))
	}
}

func testYOLOBoxNormalizedFunc() func(*testing.T) {
	return func(t *testing.T) {
		// integer centers keep an even size
		assert.Equal(t, Box{Label: "0", Xmin: 40, Ymin: 30, Xmax: 60, Ymax: 50}, YOLOBox("0", 0.5, 0.5, 0.2, 0.25, 100, 80))
		// half pixel centers get an odd size
		assert.Equal(t, Box{Label: "cat", Xmin: 40, Ymin: 32, Xmax: 61, Ymax: 49}, YOLOBox("cat", 0.5, 0.5, 0.2, 0.2, 101, 81))
		// centers over .75 move to the next pixel
		assert.Equal(t, Box{Label: "cat", Xmin: 46, Ymin: 45, Xmax: 56, Ymax: 55}, YOLOBox("cat", 0.508, 0.5, 0.1, 0.1, 100, 100))
	}
}

func testYOLOBoxNonDegenerateFunc() func(*testing.T) {
	return func(t *testing.T) {
		for _, center := range []float64{0.1, 0.333, 0.5, 0.61, 0.777, 0.9} {
			for _, size := range []float64{0.05, 0.13, 0.2, 0.37, 0.5} {
				box := YOLOBox("x", center, center, size, size, 97, 103)
				assert.Greater(t, box.Xmax, box.Xmin, "center %v size %v", center, size)
				assert.Greater(t, box.Ymax, box.Ymin, "center %v size %v", center, size)
				assert.False(t, box.Degenerate())
			}
		}
	}
}

func testConvertYOLOFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		yoloDir := filepath.Join(dir, "yolo")
		writeImage(t, filepath.Join(yoloDir, "img1.png"), 100, 80)
		writeText(t, filepath.Join(yoloDir, "img1.txt"), "0 0.5 0.5 0.2 0.25\n1 50 40 20 10\n")
		writeImage(t, filepath.Join(yoloDir, "sub", "img2.png"), 101, 81)
		writeText(t, filepath.Join(yoloDir, "sub", "img2.txt"), "cat 0.5 0.5 0.2 0.2\n")
		writeText(t, filepath.Join(yoloDir, "orphan.txt"), "0 0.5 0.5 0.1 0.1\n")

		output := filepath.Join(dir, AnnotationsFilename)
		log := &recorder{}
		conversion, err := ConvertYOLO(yoloDir, "", output, log)
		require.NoError(t, err)

		assert.Equal(t, []ImageAnnotations{
			{File: "img1.png", Boxes: []Box{
				{Label: "0", Xmin: 40, Ymin: 30, Xmax: 60, Ymax: 50},
				{Label: "1", Xmin: 40, Ymin: 35, Xmax: 60, Ymax: 45},
			}},
			{File: "sub/img2.png", Boxes: []Box{
				{Label: "cat", Xmin: 40, Ymin: 32, Xmax: 61, Ymax: 49},
			}},
		}, conversion.Annotations)
		assert.Len(t, conversion.Images, 2)
		assert.Equal(t, output+".log", conversion.LogFile)
		assert.Equal(t, 0, conversion.Warnings)
		assert.Equal(t, []string{"Start converting YOLO files in " + yoloDir + "\n"}, log.messages)

		var written []ImageAnnotations
		content, err := os.ReadFile(output)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(content, &written))
		assert.Equal(t, conversion.Annotations, written)
	}
}

const vocTemplate = `<annotation>
	<folder>images</folder>
	<filename>%s</filename>
	<size><width>100</width><height>80</height><depth>3</depth></size>
	<object>
		<name>dog</name>
		<bndbox><xmin>%s</xmin><ymin>12</ymin><xmax>%s</xmax><ymax>70</ymax></bndbox>
	</object>
</annotation>
`

func vocFile(filename string, xmin string, xmax string) string {
	return fmt.Sprintf(vocTemplate, filename, xmin, xmax)
}

func testConvertVOCFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		writeImage(t, filepath.Join(dir, "images", "dog.png"), 100, 80)
		writeText(t, filepath.Join(dir, "voc", "dog.xml"), vocFile("dog.png", "3", "97"))
		writeText(t, filepath.Join(dir, "voc", "missing.xml"), vocFile("missing.png", "3", "97"))

		output := filepath.Join(dir, AnnotationsFilename)
		conversion, err := ConvertVOC(filepath.Join(dir, "voc"), dir, output, nil)
		require.NoError(t, err)

		assert.Equal(t, []ImageAnnotations{
			{File: "images/dog.png", Boxes: []Box{{Label: "dog", Xmin: 3, Ymin: 12, Xmax: 97, Ymax: 70}}},
		}, conversion.Annotations)
		assert.Equal(t, 1, conversion.Warnings)

		log, err := os.ReadFile(conversion.LogFile)
		require.NoError(t, err)
		assert.Contains(t, string(log), "failed to find: ")
	}
}

func testConvertVOCDegenerateFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		writeImage(t, filepath.Join(dir, "images", "dog.png"), 100, 80)
		writeText(t, filepath.Join(dir, "voc", "dog.xml"), vocFile("dog.png", "50", "20"))

		conversion, err := ConvertVOC(filepath.Join(dir, "voc"), dir, filepath.Join(dir, AnnotationsFilename), nil)
		require.NoError(t, err)

		assert.Equal(t, []Box{{Label: "dog", Xmin: 50, Ymin: 12, Xmax: 20, Ymax: 70}}, conversion.Annotations[0].Boxes)
		assert.Equal(t, 1, conversion.Warnings)

		log, err := os.ReadFile(conversion.LogFile)
		require.NoError(t, err)
		assert.Contains(t, string(log), "min greater than max: (xmin, ymin, xmax, ymax):  (50, 12, 20, 70)")
	}
}

const annotationsJSON = `[
	{"file": "a.png", "boxes": [{"label": "dog", "xmin": 1, "ymin": 1, "xmax": 5, "ymax": 5}], "class": "pet", "weight": 3},
	{"file": "b.png", "boxes": [{"label": "cat", "xmin": 1, "ymin": 1, "xmax": 5, "ymax": 5}, {"label": "dog", "xmin": 2, "ymin": 2, "xmax": 5, "ymax": 5}], "class": "pet", "tags": ["indoor"]},
	{"description": "ignored without file"}
]`

func testFieldsFromAnnotationsFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := filepath.Join(t.TempDir(), AnnotationsFilename)
		writeText(t, path, annotationsJSON)

		newFields, err := FieldsFromAnnotations(path)
		require.NoError(t, err)
		assert.Equal(t, []NewField{
			{Name: "boxes", Optype: "regions"},
			{Name: "class", Optype: "categorical"},
			{Name: "weight", Optype: "numeric"},
			{Name: "tags", Optype: "items"},
		}, newFields)

		_, err = FieldsFromAnnotations(filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	}
}

func testLabelsFromAnnotationsFunc() func(*testing.T) {
	return func(t *testing.T) {
		path := filepath.Join(t.TempDir(), AnnotationsFilename)
		writeText(t, path, annotationsJSON)

		labels, err := LabelsFromAnnotations(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"dog", "cat"}, labels["boxes"])
		assert.Equal(t, []string{"pet"}, labels["class"])
	}
}

func testBuildMetadataFunc() func(*testing.T) {
	return func(t *testing.T) {
		dir := t.TempDir()
		imagesDir := filepath.Join(dir, "pets")
		writeImage(t, filepath.Join(imagesDir, "a.png"), 10, 10)
		writeImage(t, filepath.Join(imagesDir, "more", "b.png"), 10, 10)
		writeText(t, filepath.Join(imagesDir, "notes.txt"), "not an image")
		outputDir := filepath.Join(dir, "output")
		require.NoError(t, os.MkdirAll(outputDir, 0755))
		annotationsFile := filepath.Join(outputDir, AnnotationsFilename)
		writeText(t, annotationsFile, annotationsJSON)

		output, err := BuildMetadata(MetadataOptions{
			OutputDir:       outputDir,
			ImagesDir:       imagesDir,
			AnnotationsFile: annotationsFile,
			NewFields:       []NewField{{Name: "boxes", Optype: "regions"}},
		})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outputDir, MetadataFilename), output)

		var metadata Metadata
		content, err := os.ReadFile(output)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(content, &metadata))
		assert.Equal(t, "pets.zip", metadata.ImagesFile)
		assert.Equal(t, AnnotationsFilename, metadata.Annotations)
		assert.Nil(t, metadata.SourceID)

		archive, err := zip.OpenReader(filepath.Join(outputDir, "pets.zip"))
		require.NoError(t, err)
		defer archive.Close()
		var names []string
		for _, f := range archive.File {
			names = append(names, f.Name)
		}
		assert.Equal(t, []string{"a.png", "more/b.png"}, names)
	}
}
