package util

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
)

// ZipFiles archives files into zipPath with their paths relative to base.
func ZipFiles(base string, files []string, zipPath string) error {
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	absZip, _ := filepath.Abs(zipPath)
	w := zip.NewWriter(zipFile)
	for _, file := range files {
		if absFile, _ := filepath.Abs(file); absFile == absZip {
			continue
		}
		if err := addFileToZip(w, file, Relative(base, file)); err != nil {
			w.Close()
			return err
		}
	}

	return w.Close()
}

func addFileToZip(w *zip.Writer, file string, name string) error {
	reader, err := os.Open(file)
	if err != nil {
		return err
	}
	defer reader.Close()

	writer, err := w.Create(name)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, reader)
	return err
}
