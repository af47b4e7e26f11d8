package resources

import (
	"encoding/json"
	"os"

	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
)

const LocaleDefault = "en_US"

// SourceArgs are the arguments used to create a source. header is nil when
// the parser should guess it.
func SourceArgs(o *config.Options, in *Inputs, header *bool) Args {
	args := BasicArgs(o, in, o.Name)
	if o.ProjectID != "" {
		args["project"] = o.ProjectID
	}

	parser := map[string]interface{}{}
	if header != nil {
		parser["header"] = *header
	}
	if o.Locale != "" {
		parser["locale"] = o.Locale
	}
	if o.TrainingSeparator != "" {
		parser["separator"] = o.TrainingSeparator
	}
	if len(parser) > 0 {
		args["source_parser"] = parser
	}
	return args
}

// SourceUpdateArgs are the changes applied to a finished source: field
// attributes, types and the JSON source attributes.
func SourceUpdateArgs(o *config.Options, in *Inputs, f *fields.Fields) (Args, error) {
	args := Args{}
	if in.FieldAttributes != nil {
		if err := UpdateAttributes(args, map[string]interface{}{"fields": intKeyed(in.FieldAttributes)}, true, f); err != nil {
			return nil, err
		}
	}
	if in.Types != nil {
		if err := UpdateAttributes(args, map[string]interface{}{"fields": intKeyed(in.Types)}, true, f); err != nil {
			return nil, err
		}
	}
	if err := UpdateJSONArgs(args, in.JSONArgs[SourceAttributes], f); err != nil {
		return nil, err
	}
	CheckFieldsStruct(args, "source")
	return args, nil
}

// ConnectorData is the content of a data file that points to an external
// data store instead of holding the data.
type ConnectorData struct {
	ExternalConnectorID string `json:"externalconnector_id"`
	Query               string `json:"query"`
}

// ReadConnectorData tells whether path holds external connector data.
func ReadConnectorData(path string) (*ConnectorData, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	data := &ConnectorData{}
	if err := json.Unmarshal(content, data); err != nil || data.ExternalConnectorID == "" || data.Query == "" {
		return nil, false
	}
	return data, true
}

// ExternalSourceArgs creates a source from an external connector query.
func ExternalSourceArgs(o *config.Options, in *Inputs, data *ConnectorData) Args {
	args := SourceArgs(o, in, nil)
	args["external_data"] = map[string]interface{}{
		"externalconnector_id": data.ExternalConnectorID,
		"query":                data.Query,
	}
	return args
}
