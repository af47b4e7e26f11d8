package processing

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/constants"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/bigmler/bigmler/pkg/session"
	"github.com/bigmler/bigmler/pkg/util"
)

const testSourceLog = "source_test"

// vote is the prediction of one model for a test row.
type vote struct {
	Prediction string
	Confidence float64
}

// combineVotes merges the predictions of several models for the same row.
// Numeric predictions are averaged. Otherwise the plurality wins, ties going
// to the highest summed confidence and then to the first one seen.
func combineVotes(votes []vote) vote {
	switch len(votes) {
	case 0:
		return vote{}
	case 1:
		return votes[0]
	}

	sum, confidence := 0.0, 0.0
	numeric := true
	for _, v := range votes {
		value, err := strconv.ParseFloat(v.Prediction, 64)
		if err != nil {
			numeric = false
			break
		}
		sum += value
		confidence += v.Confidence
	}
	if numeric {
		n := float64(len(votes))
		return vote{Prediction: strconv.FormatFloat(sum/n, 'f', -1, 64), Confidence: confidence / n}
	}

	counts := map[string]int{}
	confidences := map[string]float64{}
	var order []string
	for _, v := range votes {
		if _, ok := counts[v.Prediction]; !ok {
			order = append(order, v.Prediction)
		}
		counts[v.Prediction]++
		confidences[v.Prediction] += v.Confidence
	}
	best := order[0]
	for _, prediction := range order[1:] {
		if counts[prediction] > counts[best] ||
			(counts[prediction] == counts[best] && confidences[prediction] > confidences[best]) {
			best = prediction
		}
	}
	return vote{Prediction: best, Confidence: confidences[best] / float64(counts[best])}
}

// predict scores the test data with every model and writes the predictions
// file.
func (p *Pipeline) predict(ctx context.Context) error {
	kind, ok := resources.KindOf(p.models[0].Type())
	if !ok {
		return fmt.Errorf("unexpected resource %s", p.models[0].ID)
	}
	if p.Options.NoBatch && kind.Batch == bigml.BatchPredictionType {
		return p.predictRows(ctx)
	}

	batchKind, ok := kind.BatchKind()
	if !ok {
		return fmt.Errorf("test data cannot be scored with %s", util.Plural(kind.Name, 2))
	}
	test, err := p.processTestDataset(ctx)
	if err != nil {
		return err
	}
	output := p.outputFile(constants.DefaultPredictions)

	if len(p.models) == 1 {
		batch, err := p.batchResource(ctx, kind, batchKind, test)
		if err != nil {
			return err
		}
		return p.download(ctx, batch.ID, output)
	}
	return p.combinedBatches(ctx, kind, batchKind, test, output)
}

// processTestDataset returns the dataset to be scored: the test part of the
// split, the --test-dataset or the dataset built from the test data.
func (p *Pipeline) processTestDataset(ctx context.Context) (*bigml.Resource, error) {
	if p.testDataset != nil {
		return p.testDataset, nil
	}
	o := p.Options
	if o.TestDataset != "" {
		dataset, err := p.Manager.Get(ctx, resources.Dataset, o.TestDataset)
		if err != nil {
			return nil, err
		}
		p.testDataset = dataset
		return dataset, nil
	}

	var source *bigml.Resource
	var err error
	switch {
	case o.TestSource != "":
		source, err = p.Manager.Get(ctx, resources.Source, o.TestSource)
	case o.Test != "":
		if id := p.resumed(testSourceLog, "Test source not found. Resuming.\n", bigml.SourceType); id != "" {
			source, err = p.Manager.Get(ctx, resources.Source, id)
			break
		}
		testOptions := *o
		testOptions.TrainingSeparator = o.TestSeparator
		if o.Name != "" {
			testOptions.Name = o.Name + " - test"
		}
		source, err = p.createSource(ctx, o.Test, &testOptions, &o.TestHeader, testSourceLog)
	default:
		return nil, errors.New("no test data to score")
	}
	if err != nil {
		return nil, err
	}

	if id := p.resumed(testDatasetLog, "Test dataset not found. Resuming.\n", bigml.DatasetType); id != "" {
		dataset, err := p.Manager.Get(ctx, resources.Dataset, id)
		if err != nil {
			return nil, err
		}
		p.testDataset = dataset
		return dataset, nil
	}
	args := resources.BasicArgs(o, p.Inputs, p.name(source.Name())+" - test")
	args["source"] = source.ID
	dataset, err := p.Manager.CreateIn(ctx, resources.Dataset, args, testDatasetLog)
	if err != nil {
		return nil, err
	}
	p.testDataset = dataset
	return dataset, nil
}

func (p *Pipeline) batchArgs(kind resources.Kind, model *bigml.Resource, test *bigml.Resource) (resources.Args, error) {
	modelFields, _ := fields.FromResource(model)
	testFields, _ := fields.FromResource(test)
	args, err := resources.BatchArgs(p.Options, p.Inputs, kind, modelFields, testFields)
	if err != nil {
		return nil, err
	}
	args[string(model.Type())] = model.ID
	args["dataset"] = test.ID
	return args, nil
}

func (p *Pipeline) batchResource(ctx context.Context, kind resources.Kind, batchKind resources.Kind, test *bigml.Resource) (*bigml.Resource, error) {
	if id := p.resumed(batchKind.LogFile, batchKind.Title()+" not found. Resuming.\n", batchKind.Type); id != "" {
		return p.Manager.Get(ctx, batchKind, id)
	}
	args, err := p.batchArgs(kind, p.models[0], test)
	if err != nil {
		return nil, err
	}
	return p.Manager.Create(ctx, batchKind, args)
}

// combinedBatches scores the test dataset with each model and merges the
// downloaded predictions row by row.
func (p *Pipeline) combinedBatches(ctx context.Context, kind resources.Kind, batchKind resources.Kind, test *bigml.Resource, output string) error {
	existing := p.resumedMany(batchKind.LogFile, len(p.models), batchKind)
	batches, err := p.getAll(ctx, existing)
	if err != nil {
		return err
	}
	argsList := make([]resources.Args, 0, len(p.models)-len(existing))
	for _, model := range p.models[len(existing):] {
		args, err := p.batchArgs(kind, model, test)
		if err != nil {
			return err
		}
		argsList = append(argsList, args)
	}
	created, err := p.Manager.CreateMany(ctx, batchKind, argsList, p.maxParallel(batchKind))
	if err != nil {
		return err
	}
	batches = append(batches, created...)

	info := p.Options.PredictionInfo
	var testHeader []string
	var testRows [][]string
	var rowVotes [][]vote
	for b, batch := range batches {
		var buf bytes.Buffer
		if err := p.Manager.Client.Download(ctx, batch.ID, &buf); err != nil {
			return fmt.Errorf("failed to download %s: %w", batch.ID, err)
		}
		records, err := readRecords(&buf, ',')
		if err != nil {
			return err
		}
		if p.Options.PredictionHeader && len(records) > 0 {
			if b == 0 {
				testHeader = testColumns(records[0], info)
			}
			records = records[1:]
		}
		for i, record := range records {
			if i == len(rowVotes) {
				rowVotes = append(rowVotes, nil)
				testRows = append(testRows, testColumns(record, info))
			}
			rowVotes[i] = append(rowVotes[i], batchVote(record, info))
		}
	}

	w, closeFile, err := p.predictionsWriter(output)
	if err != nil {
		return err
	}
	defer closeFile()
	if p.Options.PredictionHeader {
		if err := w.Write(p.predictionsHeader(testHeader)); err != nil {
			return err
		}
	}
	for i, votes := range rowVotes {
		if err := w.Write(p.predictionRecord(testRows[i], combineVotes(votes))); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// testColumns are the test row columns that precede the prediction and its
// confidence in a full batch download.
func testColumns(record []string, info string) []string {
	if info == resources.BriefFormat || info == resources.NormalFormat || len(record) < 2 {
		return nil
	}
	return record[:len(record)-2]
}

func batchVote(record []string, info string) vote {
	if len(record) == 0 {
		return vote{}
	}
	switch info {
	case resources.BriefFormat:
		return vote{Prediction: record[0]}
	case resources.NormalFormat:
		v := vote{Prediction: record[0]}
		if len(record) > 1 {
			v.Confidence, _ = strconv.ParseFloat(record[1], 64)
		}
		return v
	}
	if len(record) < 2 {
		return vote{Prediction: record[0]}
	}
	confidence, _ := strconv.ParseFloat(record[len(record)-1], 64)
	return vote{Prediction: record[len(record)-2], Confidence: confidence}
}

func (p *Pipeline) download(ctx context.Context, id string, output string) error {
	if err := util.MkDirAllInheritPerm(filepath.Dir(output)); err != nil {
		return err
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer file.Close()

	p.session().Dated(fmt.Sprintf("Downloading %s to %s.\n", id, output))
	if err := p.Manager.Client.Download(ctx, id, file); err != nil {
		return fmt.Errorf("failed to download %s: %w", id, err)
	}
	return nil
}

// predictRows creates one remote prediction per model and row of the local
// test file.
func (p *Pipeline) predictRows(ctx context.Context) error {
	o := p.Options
	if o.Test == "" || isURL(o.Test) {
		return errors.New("--no-batch needs a local --test file")
	}
	file, err := os.Open(o.Test)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", o.Test, err)
	}
	records, err := readRecords(file, separatorRune(o.TestSeparator))
	file.Close()
	if err != nil {
		return err
	}
	var header []string
	if o.TestHeader && len(records) > 0 {
		header, records = records[0], records[1:]
	}

	output := p.outputFile(constants.DefaultPredictions)
	lines := len(records)
	if o.PredictionHeader {
		lines++
	}
	if p.resume && p.Checker.Predictions(output, lines, util.Dated("Predictions not found. Resuming.\n")) {
		return nil
	}
	p.resume = false

	modelFields := make([]*fields.Fields, len(p.models))
	for i, model := range p.models {
		if modelFields[i], err = fields.FromResource(model); err != nil {
			return err
		}
	}

	w, closeFile, err := p.predictionsWriter(output)
	if err != nil {
		return err
	}
	defer closeFile()
	if o.PredictionHeader {
		if err := w.Write(p.predictionsHeader(header)); err != nil {
			return err
		}
	}

	p.session().Dated("Creating remote predictions.\n")
	for _, record := range records {
		votes := make([]vote, 0, len(p.models))
		for i, model := range p.models {
			v, err := p.remotePredict(ctx, model, inputData(record, header, modelFields[i]))
			if err != nil {
				return err
			}
			votes = append(votes, v)
		}
		if err := w.Write(p.predictionRecord(record, combineVotes(votes))); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (p *Pipeline) remotePredict(ctx context.Context, model *bigml.Resource, data map[string]interface{}) (vote, error) {
	args := resources.PredictionArgs(p.Options, p.Inputs, model.ID, data)
	prediction, err := p.Manager.Client.Create(ctx, bigml.PredictionType, args)
	if err != nil {
		return vote{}, fmt.Errorf("failed to create prediction: %w", err)
	}
	if prediction.Status() != bigml.Finished {
		if prediction, err = p.Manager.Client.CheckResource(ctx, prediction.ID, bigml.CheckOptions{}); err != nil {
			return vote{}, fmt.Errorf("failed to get a finished prediction: %w", err)
		}
	}
	if err := p.session().LogCreatedResource(resources.Prediction.LogFile, prediction.ID, "", session.Append); err != nil {
		return vote{}, err
	}

	confidence := prediction.Get("confidence")
	if !confidence.Exists() {
		confidence = prediction.Get("probability")
	}
	return vote{Prediction: prediction.Get("output").String(), Confidence: confidence.Float()}, nil
}

// inputData maps a test row to the model fields: by header name when the
// test file has a header, in the order of the model input fields otherwise.
func inputData(record []string, header []string, f *fields.Fields) map[string]interface{} {
	data := map[string]interface{}{}
	set := func(id string, value string) {
		if value == "" || id == f.ObjectiveFieldID() {
			return
		}
		if field, ok := f.Field(id); ok && field.Optype == "numeric" {
			if number, err := strconv.ParseFloat(value, 64); err == nil {
				data[id] = number
				return
			}
		}
		data[id] = value
	}

	if header != nil {
		for i, name := range header {
			id, err := f.FieldID(name)
			if err != nil || i >= len(record) {
				continue
			}
			set(id, record[i])
		}
		return data
	}
	for i, id := range f.InputIDs() {
		if i >= len(record) {
			break
		}
		set(id, record[i])
	}
	return data
}

func (p *Pipeline) predictionsWriter(output string) (*csv.Writer, func(), error) {
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, nil, err
	}
	file, err := os.Create(output)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", output, err)
	}
	return csv.NewWriter(file), func() { file.Close() }, nil
}

func (p *Pipeline) predictionsHeader(testHeader []string) []string {
	name := "prediction"
	if f, err := fields.FromResource(p.models[0]); err == nil {
		if objective, err := f.FieldName(f.ObjectiveFieldID()); err == nil {
			name = objective
		}
	}
	switch p.Options.PredictionInfo {
	case resources.BriefFormat:
		return []string{name}
	case resources.NormalFormat:
		return []string{name, "confidence"}
	}
	return append(append([]string{}, testHeader...), name, "confidence")
}

func (p *Pipeline) predictionRecord(record []string, v vote) []string {
	confidence := strconv.FormatFloat(v.Confidence, 'f', -1, 64)
	switch p.Options.PredictionInfo {
	case resources.BriefFormat:
		return []string{v.Prediction}
	case resources.NormalFormat:
		return []string{v.Prediction, confidence}
	}
	return append(append([]string{}, record...), v.Prediction, confidence)
}

func separatorRune(separator string) rune {
	switch separator {
	case "":
		return ','
	case "\\t", "\t":
		return '\t'
	}
	return []rune(separator)[0]
}

func readRecords(r io.Reader, separator rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV rows: %w", err)
	}
	return records, nil
}
