package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
)

// MarshalAndPrintTable renders a slice of csv-tagged structs as a borderless table.
func MarshalAndPrintTable(writer io.Writer, in interface{}) error {
	csvContent, err := gocsv.MarshalString(in)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetRowLine(false)
	table.SetCenterSeparator("")
	table.SetRowSeparator("")
	table.SetColumnSeparator("")
	scanner := bufio.NewScanner(strings.NewReader(csvContent))
	header := true

	for scanner.Scan() {
		text := strings.Split(scanner.Text(), ",")

		if header {
			table.SetHeader(text)
			header = false
		} else {
			table.Append(text)
		}
	}

	table.Render()
	return nil
}

// PrintTree returns a graphical tree of the files under directory.
func PrintTree(directory string, padding string) (string, error) {
	var output string
	if padding != " " {
		output = padding[:len(padding)-1] + "├─"
	} else {
		output = padding
	}
	abs, err := filepath.Abs(directory)
	if err != nil {
		return "", err
	}
	output += filepath.Base(abs) + "\n"
	padding += " "

	entries, err := os.ReadDir(directory)
	if err != nil {
		return "", err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for i, entry := range entries {
		path := filepath.Join(directory, entry.Name())
		last := i == len(entries)-1
		if entry.IsDir() {
			childPadding := padding + "|"
			if last {
				childPadding = padding + " "
			}
			sub, err := PrintTree(path, childPadding)
			if err != nil {
				return "", err
			}
			output += sub
			continue
		}
		if last {
			output += fmt.Sprintf("%s└─%s\n", padding, entry.Name())
		} else {
			output += fmt.Sprintf("%s├─%s\n", padding, entry.Name())
		}
	}

	return output, nil
}
