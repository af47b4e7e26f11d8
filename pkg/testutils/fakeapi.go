package testutils

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bigmler/bigmler/pkg/bigml"
)

const (
	FakeUsername = "bigmler-user"
	FakeAPIKey   = "c0ffee"
)

// FakeRequest is a call received by the FakeAPI.
type FakeRequest struct {
	Method string
	Type   bigml.ResourceType
	ID     string
	Query  map[string]string
	Args   map[string]interface{}
}

type fakeResource struct {
	object  map[string]interface{}
	polls   int
	rows    int
	created time.Time
	// uploaded lines, header first
	lines []string
}

// FakeAPI emulates the BigML REST API. Resources are finished after
// PollsToFinish status requests, or faulty when their type is in Faulty.
type FakeAPI struct {
	Server        *httptest.Server
	PollsToFinish int
	Faulty        map[bigml.ResourceType]string
	Prediction    string

	mu        sync.Mutex
	counter   int
	resources map[string]*fakeResource
	order     []string
	requests  []FakeRequest
}

func NewFakeAPI(t testing.TB) *FakeAPI {
	f := &FakeAPI{
		PollsToFinish: 1,
		Faulty:        map[bigml.ResourceType]string{},
		Prediction:    "Iris-setosa",
		resources:     map[string]*fakeResource{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeAPI) Connection() bigml.Connection {
	u, _ := url.Parse(f.Server.URL)
	return bigml.Connection{
		Username: FakeUsername,
		APIKey:   FakeAPIKey,
		Domain:   u.Host,
		Protocol: "http",
	}
}

// Add registers a resource with the given status and returns its id.
func (f *FakeAPI) Add(t bigml.ResourceType, object map[string]interface{}, status bigml.StatusCode) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := f.newResource(t, object)
	if status == bigml.Finished {
		res.polls = f.PollsToFinish
	}
	res.object["status"] = map[string]interface{}{"code": int(status), "message": status.String()}
	return res.object["resource"].(string)
}

func (f *FakeAPI) Resource(id string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	res, ok := f.resources[id]
	if !ok {
		return nil
	}
	return res.object
}

// IDs returns the ids of the resources of type t in creation order.
func (f *FakeAPI) IDs(t bigml.ResourceType) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for _, id := range f.order {
		if _, ok := f.resources[id]; ok && bigml.TypeOf(id) == t {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *FakeAPI) Requests() []FakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]FakeRequest(nil), f.requests...)
}

// Count returns the number of requests with the given method on type t.
func (f *FakeAPI) Count(method string, t bigml.ResourceType) int {
	count := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Type == t {
			count++
		}
	}
	return count
}

func (f *FakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := parseQuery(r.URL.RawQuery)
	if query["username"] != FakeUsername || query["api_key"] != FakeAPIKey {
		writeJSON(w, http.StatusUnauthorized, statusBody(-1100, "Unauthorized use"))
		return
	}

	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/andromeda"), "/"), "/")
	t := bigml.ResourceType(parts[0])
	id := ""
	if len(parts) > 1 {
		id = parts[0] + "/" + parts[1]
	}

	req := FakeRequest{Method: r.Method, Type: t, ID: id, Query: query}

	switch {
	case r.Method == http.MethodPost && id == "":
		args, rows, err := readArgs(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, statusBody(-1200, err.Error()))
			return
		}
		req.Args = args
		f.requests = append(f.requests, req)
		f.create(w, t, args, rows)
	case r.Method == http.MethodGet && id == "":
		f.requests = append(f.requests, req)
		f.list(w, t, query)
	case r.Method == http.MethodGet && len(parts) == 3 && parts[2] == "download":
		f.requests = append(f.requests, req)
		f.download(w, id)
	case r.Method == http.MethodGet:
		f.requests = append(f.requests, req)
		f.get(w, id)
	case r.Method == http.MethodPut:
		args, _, err := readArgs(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, statusBody(-1200, err.Error()))
			return
		}
		req.Args = args
		f.requests = append(f.requests, req)
		f.update(w, id, args)
	case r.Method == http.MethodDelete:
		f.requests = append(f.requests, req)
		if _, ok := f.resources[id]; !ok {
			writeJSON(w, http.StatusNotFound, statusBody(-1201, "The resource couldn't be found"))
			return
		}
		delete(f.resources, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, statusBody(-1, "method not allowed"))
	}
}

func (f *FakeAPI) newResource(t bigml.ResourceType, object map[string]interface{}) *fakeResource {
	f.counter++
	id := fmt.Sprintf("%s/%024x", t, f.counter)
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.counter) * time.Hour)

	o := map[string]interface{}{}
	for k, v := range object {
		o[k] = v
	}
	o["resource"] = id
	o["created"] = created.Format("2006-01-02T15:04:05.000000")
	o["status"] = map[string]interface{}{"code": int(bigml.Queued), "message": "The request has been queued"}

	res := &fakeResource{object: o, created: created}
	f.resources[id] = res
	f.order = append(f.order, id)
	return res
}

func (f *FakeAPI) create(w http.ResponseWriter, t bigml.ResourceType, args map[string]interface{}, rows []string) {
	res := f.newResource(t, args)

	switch t {
	case bigml.SourceType:
		if rows != nil {
			res.object["fields"] = fieldsFromRows(rows)
			res.rows = len(rows) - 1
			res.lines = rows
		}
	case bigml.DatasetType:
		origin := f.origin(args, "source", "origin_dataset", "origin_datasets", "datasets")
		if origin != nil {
			res.rows = origin.rows
			res.object["fields"] = origin.object["fields"]
			if rate, ok := args["sample_rate"].(float64); ok {
				inBag := int(float64(origin.rows)*rate + 0.5)
				if oob, _ := args["out_of_bag"].(bool); oob {
					res.rows = origin.rows - inBag
				} else {
					res.rows = inBag
				}
			}
			if len(origin.lines) > res.rows {
				res.lines = origin.lines[:res.rows+1]
			}
		}
		res.object["rows"] = res.rows
		if objective := lastFieldID(res.object["fields"]); objective != "" {
			res.object["objective_field"] = map[string]interface{}{"id": objective}
		}
	case bigml.PredictionType, bigml.CentroidType, bigml.AnomalyScoreType,
		bigml.ProjectionType, bigml.TopicDistributionType, bigml.ForecastType,
		bigml.AssociationSetType:
		res.polls = f.PollsToFinish
		res.object["status"] = map[string]interface{}{"code": int(bigml.Finished), "message": "The prediction has been created"}
		res.object["output"] = f.Prediction
		res.object["confidence"] = 0.9
		writeJSON(w, http.StatusCreated, res.object)
		return
	case bigml.EvaluationType:
		res.object["result"] = map[string]interface{}{
			"model": map[string]interface{}{
				"accuracy":          0.96667,
				"average_f_measure": 0.96658,
				"average_precision": 0.96813,
				"average_recall":    0.96667,
			},
			"mode":   map[string]interface{}{"accuracy": 0.33333},
			"random": map[string]interface{}{"accuracy": 0.30667},
		}
	default:
		origin := f.origin(args, "dataset", "datasets", "models")
		if origin != nil {
			res.rows = origin.rows
			res.object["fields"] = origin.object["fields"]
			if objective := lastFieldID(origin.object["fields"]); objective != "" {
				if _, ok := args["objective_field"]; !ok {
					res.object["objective_field"] = objective
				}
				res.object["objective_fields"] = []interface{}{res.object["objective_field"]}
			}
		}
	}

	writeJSON(w, http.StatusCreated, res.object)
}

func (f *FakeAPI) origin(args map[string]interface{}, keys ...string) *fakeResource {
	for _, key := range keys {
		switch v := args[key].(type) {
		case string:
			if res, ok := f.resources[v]; ok {
				return res
			}
		case []interface{}:
			if len(v) > 0 {
				if id, ok := v[0].(string); ok {
					if res, ok := f.resources[id]; ok {
						return res
					}
				}
			}
		}
	}
	return nil
}

func (f *FakeAPI) get(w http.ResponseWriter, id string) {
	res, ok := f.resources[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, statusBody(-1201, "The resource couldn't be found"))
		return
	}

	res.polls++
	f.refreshStatus(res)
	writeJSON(w, http.StatusOK, res.object)
}

func (f *FakeAPI) refreshStatus(res *fakeResource) {
	code := int(statusOf(res.object))
	if code == int(bigml.Finished) || code == int(bigml.Faulty) {
		return
	}
	if message, faulty := f.Faulty[bigml.TypeOf(res.object["resource"].(string))]; faulty {
		res.object["status"] = map[string]interface{}{"code": int(bigml.Faulty), "message": message}
		return
	}
	if res.polls >= f.PollsToFinish {
		res.object["status"] = map[string]interface{}{"code": int(bigml.Finished), "message": "The resource has been created"}
		return
	}
	res.object["status"] = map[string]interface{}{"code": int(bigml.InProgress), "message": "The resource is being processed"}
}

func (f *FakeAPI) update(w http.ResponseWriter, id string, args map[string]interface{}) {
	res, ok := f.resources[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, statusBody(-1201, "The resource couldn't be found"))
		return
	}

	for k, v := range args {
		if k == "fields" {
			mergeFields(res.object, v)
			continue
		}
		res.object[k] = v
	}
	writeJSON(w, http.StatusAccepted, res.object)
}

func (f *FakeAPI) list(w http.ResponseWriter, t bigml.ResourceType, query map[string]string) {
	var matches []map[string]interface{}
	for _, id := range f.order {
		res, ok := f.resources[id]
		if !ok || bigml.TypeOf(id) != t {
			continue
		}
		if matchesFilters(res.object, query) {
			matches = append(matches, res.object)
		}
	}
	if query["order_by"] == "-created" {
		for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
			matches[i], matches[j] = matches[j], matches[i]
		}
	}

	limit := 20
	if l, err := strconv.Atoi(query["limit"]); err == nil {
		limit = l
	}
	offset, _ := strconv.Atoi(query["offset"])

	page := []map[string]interface{}{}
	for i := offset; i < len(matches) && (limit < 0 || i < offset+limit); i++ {
		page = append(page, matches[i])
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"meta": map[string]interface{}{
			"limit":       limit,
			"offset":      offset,
			"total_count": len(matches),
		},
		"objects": page,
	})
}

func (f *FakeAPI) download(w http.ResponseWriter, id string) {
	res, ok := f.resources[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, statusBody(-1201, "The resource couldn't be found"))
		return
	}

	rows := 0
	var lines []string
	if dataset := f.origin(res.object, "dataset"); dataset != nil {
		rows = dataset.rows
		lines = dataset.lines
	}
	// all_fields rows start with the test row and end with the confidence
	allFields, _ := res.object["all_fields"].(bool)
	allFields = allFields && len(lines) == rows+1

	var buf bytes.Buffer
	if header, _ := res.object["header"].(bool); header {
		name, _ := res.object["prediction_name"].(string)
		if name == "" {
			name = "prediction"
		}
		if allFields {
			buf.WriteString(lines[0] + "," + name + ",confidence\n")
		} else {
			buf.WriteString(name + "\n")
		}
	}
	for i := 0; i < rows; i++ {
		if allFields {
			buf.WriteString(lines[i+1] + "," + f.Prediction + ",0.9\n")
			continue
		}
		buf.WriteString(f.Prediction + "\n")
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func matchesFilters(object map[string]interface{}, query map[string]string) bool {
	for key, value := range query {
		switch key {
		case "tags__in":
			tags, _ := object["tags"].([]interface{})
			found := false
			for _, tag := range tags {
				if tag == value {
					found = true
				}
			}
			if !found {
				return false
			}
		case "status.code":
			if strconv.Itoa(int(statusOf(object))) != value {
				return false
			}
		case "created__lt":
			if created, _ := object["created"].(string); created >= value {
				return false
			}
		case "created__gt":
			if created, _ := object["created"].(string); created <= value {
				return false
			}
		case "ensemble", "cluster_status":
			flag, _ := object[key].(bool)
			if strconv.FormatBool(flag) != value {
				return false
			}
		case "name":
			if object["name"] != value {
				return false
			}
		}
	}
	return true
}

func statusOf(object map[string]interface{}) bigml.StatusCode {
	status, _ := object["status"].(map[string]interface{})
	switch code := status["code"].(type) {
	case int:
		return bigml.StatusCode(code)
	case float64:
		return bigml.StatusCode(int(code))
	}
	return bigml.Unknown
}

func readArgs(r *http.Request) (map[string]interface{}, []string, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	if mediaType != "multipart/form-data" {
		args := map[string]interface{}{}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, nil, err
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &args); err != nil {
				return nil, nil, err
			}
		}
		return args, nil, nil
	}

	args := map[string]interface{}{}
	var rows []string
	reader := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		content, err := io.ReadAll(part)
		if err != nil {
			return nil, nil, err
		}
		if part.FormName() == "file" {
			args["file_name"] = part.FileName()
			rows = []string{}
			scanner := bufio.NewScanner(bytes.NewReader(content))
			for scanner.Scan() {
				if line := strings.TrimSpace(scanner.Text()); line != "" {
					rows = append(rows, line)
				}
			}
			continue
		}
		var value interface{}
		if err := json.Unmarshal(content, &value); err != nil {
			value = string(content)
		}
		args[part.FormName()] = value
	}
	return args, rows, nil
}

func fieldsFromRows(rows []string) map[string]interface{} {
	fields := map[string]interface{}{}
	if len(rows) == 0 {
		return fields
	}
	header := strings.Split(rows[0], ",")
	var first []string
	if len(rows) > 1 {
		first = strings.Split(rows[1], ",")
	}
	for i, name := range header {
		optype := "categorical"
		if i < len(first) {
			if _, err := strconv.ParseFloat(first[i], 64); err == nil {
				optype = "numeric"
			}
		}
		fields[fmt.Sprintf("%06x", i)] = map[string]interface{}{
			"name":          strings.TrimSpace(name),
			"column_number": i,
			"optype":        optype,
			"preferred":     true,
		}
	}
	return fields
}

func lastFieldID(fields interface{}) string {
	m, ok := fields.(map[string]interface{})
	if !ok || len(m) == 0 {
		return ""
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids[len(ids)-1]
}

func mergeFields(object map[string]interface{}, update interface{}) {
	fields, ok := object["fields"].(map[string]interface{})
	if !ok {
		fields = map[string]interface{}{}
		object["fields"] = fields
	}
	changes, _ := update.(map[string]interface{})
	for id, change := range changes {
		current, _ := fields[id].(map[string]interface{})
		if current == nil {
			current = map[string]interface{}{}
		}
		attributes, _ := change.(map[string]interface{})
		for k, v := range attributes {
			current[k] = v
		}
		fields[id] = current
	}
}

func parseQuery(raw string) map[string]string {
	query := map[string]string{}
	for _, pair := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '&' }) {
		key, value, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(value); err == nil {
			value = unescaped
		}
		query[key] = value
	}
	return query
}

func statusBody(code int, message string) map[string]interface{} {
	return map[string]interface{}{
		"code":   code,
		"status": map[string]interface{}{"code": code, "message": message},
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
