package reader

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/util"
)

var attributeNames = []string{"name", "label", "description"}

func ReadDescription(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read description %s: %w", path, err)
	}
	return string(content), nil
}

// ReadFieldAttributes reads a column number followed by name, label and
// description per line, single quoted when needed:
//
//	0,'first name','label for the first field','first field description'
func ReadFieldAttributes(path string) (map[int]map[string]interface{}, error) {
	lines, err := util.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read field attributes %s: %w", path, err)
	}

	attributes := map[int]map[string]interface{}{}
	for _, line := range lines {
		row, err := SplitQuoted(line, ',', '\'')
		if err != nil {
			return nil, fmt.Errorf("wrong field attributes line %q: %w", line, err)
		}
		if len(row) < 2 {
			continue
		}
		column, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("wrong column number in field attributes line %q", line)
		}
		fieldAttributes := map[string]interface{}{}
		for i := 0; i < len(attributeNames) && i < len(row)-1; i++ {
			fieldAttributes[attributeNames[i]] = row[i+1]
		}
		attributes[column] = fieldAttributes
	}
	return attributes, nil
}

// ReadTypes reads a column number and an optype per line: 0, 'categorical'.
// Lines that do not match are returned as warnings.
func ReadTypes(path string) (map[int]map[string]interface{}, []string, error) {
	pairs, warnings, err := readPairs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read types %s: %w", path, err)
	}

	types := map[int]map[string]interface{}{}
	for _, pair := range pairs {
		column, err := strconv.Atoi(pair[0])
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s, %s", pair[0], pair[1]))
			continue
		}
		types[column] = map[string]interface{}{"optype": pair[1]}
	}
	return types, warnings, nil
}

// ReadFieldsMap reads the pairs of model column and test dataset column.
func ReadFieldsMap(path string) (map[int]int, []string, error) {
	pairs, warnings, err := readPairs(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read fields map %s: %w", path, err)
	}

	fieldsMap := map[int]int{}
	for _, pair := range pairs {
		from, errFrom := strconv.Atoi(pair[0])
		to, errTo := strconv.Atoi(pair[1])
		if errFrom != nil || errTo != nil {
			warnings = append(warnings, fmt.Sprintf("%s, %s", pair[0], pair[1]))
			continue
		}
		fieldsMap[from] = to
	}
	return fieldsMap, warnings, nil
}

func readPairs(path string) ([][2]string, []string, error) {
	lines, err := util.ReadLines(path)
	if err != nil {
		return nil, nil, err
	}

	var pairs [][2]string
	var warnings []string
	for _, line := range lines {
		row, err := SplitQuoted(strings.Trim(strings.TrimSpace(line), "()[]"), ',', '\'', '"')
		if err != nil || len(row) != 2 {
			warnings = append(warnings, line)
			continue
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(row[0]), strings.TrimSpace(row[1])})
	}
	return pairs, warnings, nil
}

// ReadJSON reads the attributes used to create or update resources.
func ReadJSON(path string) (map[string]interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read json file %s: %w", path, err)
	}
	attributes := map[string]interface{}{}
	if err := json.Unmarshal(content, &attributes); err != nil {
		return nil, fmt.Errorf("no valid json found in %s: %w", path, err)
	}
	return attributes, nil
}

// ReadJSONFilter reads a JSON filter expression: [">", 3.14, ["field", "000002"]]
func ReadJSONFilter(path string) (interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read json filter %s: %w", path, err)
	}
	var filter interface{}
	if err := json.Unmarshal(content, &filter); err != nil {
		return nil, fmt.Errorf("no valid json filter found in %s: %w", path, err)
	}
	return filter, nil
}

func ReadLispFilter(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read lisp filter %s: %w", path, err)
	}
	return string(content), nil
}

// ReadResources reads the resource ids that start the lines of path. Lines
// holding anything else, like the names logged after a source id, are
// skipped.
func ReadResources(path string) ([]string, error) {
	lines, err := util.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read resources %s: %w", path, err)
	}
	var ids []string
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) == 0 || !bigml.IsResourceID(tokens[0]) {
			continue
		}
		ids = append(ids, tokens[0])
	}
	return ids, nil
}

// ReadObjectiveWeights reads "class, weight" lines into the objective
// weights argument.
func ReadObjectiveWeights(path string) ([]interface{}, error) {
	lines, err := util.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read objective weights %s: %w", path, err)
	}

	weights := []interface{}{}
	for _, line := range lines {
		row, err := SplitQuoted(line, ',', '\'')
		if err != nil || len(row) != 2 {
			return nil, fmt.Errorf("wrong objective field file syntax\n%s", line)
		}
		weight, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("wrong objective field file syntax\n%s", line)
		}
		weights = append(weights, []interface{}{row[0], weight})
	}
	return weights, nil
}

// SplitQuoted splits line by sep, keeping separators found between any of
// the quote characters. Quotes are removed.
func SplitQuoted(line string, sep rune, quotes ...rune) ([]string, error) {
	var fields []string
	var current strings.Builder
	var open rune

	isQuote := func(r rune) bool {
		for _, q := range quotes {
			if r == q {
				return true
			}
		}
		return false
	}

	for _, r := range line {
		switch {
		case open != 0:
			if r == open {
				open = 0
			} else {
				current.WriteRune(r)
			}
		case isQuote(r):
			open = r
		case r == sep:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	if open != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	fields = append(fields, current.String())
	return fields, nil
}
