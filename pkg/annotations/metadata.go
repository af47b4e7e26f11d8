package annotations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bigmler/bigmler/pkg/util"
)

const metadataDescription = "Transformed file for images annotations"

// Metadata summarizes the locations of the images and their annotations
// for an annotated images upload.
type Metadata struct {
	Description string     `json:"description"`
	ImagesFile  string     `json:"images_file"`
	SourceID    *string    `json:"source_id"`
	NewFields   []NewField `json:"new_fields"`
	Annotations string     `json:"annotations"`
}

type MetadataOptions struct {
	OutputDir       string
	ImagesDir       string
	ImagesFile      string
	AnnotationsFile string
	SourceID        string
	// Images are zipped when no ImagesFile is given.
	Images    []string
	NewFields []NewField
}

// BuildMetadata zips the images when needed and, when an annotations file is
// given, writes metadata.json in the output dir. It returns the file to
// upload: the metadata file or the images zip.
func BuildMetadata(opts MetadataOptions) (string, error) {
	output, err := buildMetadata(opts)
	if err != nil {
		return "", fmt.Errorf("failed to create an annotated images upload file: %w", err)
	}
	return output, nil
}

func buildMetadata(opts MetadataOptions) (string, error) {
	images := opts.Images
	zipPath := filepath.Join(opts.OutputDir, "annotated_images.zip")
	if opts.ImagesFile == "" && opts.ImagesDir != "" && util.DirExists(opts.ImagesDir) {
		if name := filepath.Base(filepath.Clean(opts.ImagesDir)); name != "." && name != string(filepath.Separator) {
			zipPath = filepath.Join(opts.OutputDir, name+".zip")
		}
		listed, err := util.ListFiles(opts.ImagesDir, ImageExtensions...)
		if err != nil {
			return "", err
		}
		images = listed
	}

	imagesFile := opts.ImagesFile
	if imagesFile == "" && len(images) > 0 {
		if !util.FileExists(zipPath) {
			if err := util.ZipFiles(zipBase(opts.ImagesDir, images), images, zipPath); err != nil {
				return "", err
			}
		}
		imagesFile = zipPath
	}

	if opts.AnnotationsFile == "" {
		return imagesFile, nil
	}

	newFields := opts.NewFields
	if newFields == nil {
		inferred, err := FieldsFromAnnotations(opts.AnnotationsFile)
		if err != nil {
			return "", err
		}
		newFields = inferred
	}

	metadata := Metadata{
		Description: metadataDescription,
		ImagesFile:  relativeTo(opts.OutputDir, imagesFile),
		NewFields:   newFields,
		Annotations: relativeTo(opts.OutputDir, opts.AnnotationsFile),
	}
	if opts.SourceID != "" {
		metadata.SourceID = &opts.SourceID
	}

	content, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	metadataFile := filepath.Join(opts.OutputDir, MetadataFilename)
	if err := os.WriteFile(metadataFile, content, 0644); err != nil {
		return "", err
	}
	return metadataFile, nil
}

func zipBase(imagesDir string, images []string) string {
	if imagesDir != "" {
		return imagesDir
	}
	return filepath.Dir(images[0])
}

func relativeTo(base string, path string) string {
	if absPath, err := filepath.Abs(path); err == nil {
		path = absPath
	}
	return util.Relative(base, path)
}
