package annotations

import (
	"fmt"
	"os"
	"path/filepath"
)

type converter struct {
	outputFile string
	log        MessageLogger
	logFile    *os.File
	images     map[string]bool
	conversion *Conversion
}

func newConverter(outputFile string, log MessageLogger) (*converter, error) {
	logName := outputFile + ".log"
	logFile, err := os.Create(logName)
	if err != nil {
		return nil, fmt.Errorf("cannot create the annotations log: %w", err)
	}
	return &converter{
		outputFile: outputFile,
		log:        log,
		logFile:    logFile,
		images:     map[string]bool{},
		conversion: &Conversion{LogFile: logName},
	}, nil
}

func (c *converter) message(message string) {
	if c.log != nil {
		c.log.LogMessage(message, true)
	}
	c.logf("\n%s", message)
}

func (c *converter) logf(format string, args ...interface{}) {
	fmt.Fprintf(c.logFile, format, args...)
}

func (c *converter) warnf(format string, args ...interface{}) {
	c.conversion.Warnings++
	c.logf(format, args...)
}

func (c *converter) addImage(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if c.images[path] {
		return
	}
	c.images[path] = true
	c.conversion.Images = append(c.conversion.Images, path)
}

func (c *converter) finish() (*Conversion, error) {
	if c.conversion.Warnings > 0 {
		c.message(fmt.Sprintf("\nThere are %d warnings, see the log file %s\n", c.conversion.Warnings, c.conversion.LogFile))
	}
	if err := WriteAnnotations(c.outputFile, c.conversion.Annotations); err != nil {
		return nil, fmt.Errorf("cannot write the annotations file: %w", err)
	}
	return c.conversion, nil
}

func (c *converter) close() {
	c.logFile.Close()
}
