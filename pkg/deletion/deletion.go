package deletion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/loggers"
	"github.com/bigmler/bigmler/pkg/reader"
	"github.com/bigmler/bigmler/pkg/session"
	"github.com/bigmler/bigmler/pkg/util"
	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const rowsLimit = 15

var errWrongDate = errors.New("the --older-than and --newer-than flags only accept integers (number of days), dates in YYYY-MM-DD format and resource ids")

// Linked resources are removed with the resource that owns them, so the
// listings leave them out.
var linkedFilters = map[bigml.ResourceType]string{
	bigml.DatasetType: "cluster_status=false",
	bigml.ModelType:   "ensemble=false",
}

type typeSummary struct {
	Type  string `csv:"type"`
	Count int    `csv:"count"`
}

// Confirmer asks the user whether to go on with the deletion.
type Confirmer func(label string) (bool, error)

// Deleter selects remote resources by id, tag, date or status and deletes
// them.
type Deleter struct {
	Client  *bigml.Client
	Session *session.Session
	Options *config.Options
	Confirm Confirmer
}

func New(client *bigml.Client, s *session.Session, o *config.Options) *Deleter {
	return &Deleter{
		Client:  client,
		Session: s,
		Options: o,
		Confirm: promptConfirm,
	}
}

func promptConfirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Run deletes the selected resources, datasets last. With --dry-run the
// selection is only shown.
func (d *Deleter) Run(ctx context.Context) error {
	o := d.Options
	s := d.Session
	s.Dated("Retrieving objects to delete.\n")
	ids, err := d.Select(ctx)
	if err != nil {
		return err
	}

	if o.DryRun {
		s.Dated(fmt.Sprintf("Found %d objects to delete.\n", len(ids)))
	} else {
		s.Dated(fmt.Sprintf("Deleting %d objects.\n", len(ids)))
	}
	if len(ids) == 0 {
		return nil
	}
	if err := d.printSummary(ids); err != nil {
		return err
	}
	if o.DryRun {
		return nil
	}

	if !o.Yes {
		ok, err := d.Confirm(fmt.Sprintf("Delete %d resources", len(ids)))
		if err != nil {
			return err
		}
		if !ok {
			s.Dated("Deletion cancelled.\n")
			return nil
		}
	}

	var datasets, others []string
	for _, id := range ids {
		if bigml.TypeOf(id) == bigml.DatasetType {
			datasets = append(datasets, id)
		} else {
			others = append(others, id)
		}
	}
	if err := d.deleteAll(ctx, others); err != nil {
		return err
	}
	return d.deleteAll(ctx, datasets)
}

// Select gathers the ids to delete from every selector and returns them
// sorted, datasets last.
func (d *Deleter) Select(ctx context.Context) ([]string, error) {
	o := d.Options
	types, err := parseTypes(o.ResourceTypes)
	if err != nil {
		return nil, err
	}

	ids := util.SplitList(o.DeleteList, ",")
	for _, id := range ids {
		if !bigml.IsResourceID(id) {
			return nil, fmt.Errorf("%q is not a valid resource id", id)
		}
	}
	if o.DeleteFile != "" {
		if !util.FileExists(o.DeleteFile) {
			return nil, fmt.Errorf("file %s not found", o.DeleteFile)
		}
		fileIDs, err := reader.ReadResources(o.DeleteFile)
		if err != nil {
			return nil, err
		}
		ids = append(ids, fileIDs...)
	}
	if o.FromDir != "" {
		dirIDs, err := idsFromDir(o.FromDir)
		if err != nil {
			return nil, err
		}
		ids = append(ids, dirIDs...)
	}

	listed, err := d.listIDs(ctx, types)
	if err != nil {
		return nil, err
	}
	ids = append(ids, listed...)

	return order(filterTypes(ids, types)), nil
}

// idsFromDir reads the resource ids of every id log found under dir. Id
// logs are the files with no extension.
func idsFromDir(dir string) ([]string, error) {
	if !util.DirExists(dir) {
		return nil, fmt.Errorf("directory %s not found", dir)
	}
	var ids []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || filepath.Ext(entry.Name()) != "" {
			return nil
		}
		fileIDs, err := reader.ReadResources(path)
		if err != nil {
			return err
		}
		ids = append(ids, fileIDs...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read resources in %s: %w", dir, err)
	}
	return ids, nil
}

func (d *Deleter) tags() map[bigml.ResourceType]string {
	o := d.Options
	return map[bigml.ResourceType]string{
		bigml.SourceType:          o.SourceTag,
		bigml.DatasetType:         o.DatasetTag,
		bigml.ModelType:           o.ModelTag,
		bigml.EnsembleType:        o.EnsembleTag,
		bigml.EvaluationType:      o.EvaluationTag,
		bigml.BatchPredictionType: o.BatchPredictionTag,
		bigml.ClusterType:         o.ClusterTag,
	}
}

// listIDs lists the resources matching the tag, date and status filters.
// Without tags, the date and status filters apply to every type.
func (d *Deleter) listIDs(ctx context.Context, types map[bigml.ResourceType]bool) ([]string, error) {
	o := d.Options
	var filters []string
	if o.OlderThan != "" {
		date, err := d.date(ctx, o.OlderThan)
		if err != nil {
			return nil, err
		}
		filters = append(filters, "created__lt="+date)
	}
	if o.NewerThan != "" {
		date, err := d.date(ctx, o.NewerThan)
		if err != nil {
			return nil, err
		}
		filters = append(filters, "created__gt="+date)
	}
	var status *bigml.StatusCode
	if o.Status != "" {
		code, err := bigml.ParseStatus(o.Status)
		if err != nil {
			return nil, err
		}
		status = &code
	}

	tags := d.tags()
	tagged := o.AllTag != ""
	for _, tag := range tags {
		tagged = tagged || tag != ""
	}
	if !tagged && len(filters) == 0 && status == nil {
		return nil, nil
	}

	var ids []string
	for _, t := range bigml.ResourceTypes {
		if len(types) > 0 && !types[t] {
			continue
		}
		query := append([]string{}, filters...)
		if tagged {
			tag := o.AllTag
			if tag == "" {
				tag = tags[t]
			}
			if tag == "" {
				continue
			}
			query = append(query, "tags__in="+url.QueryEscape(tag))
		}
		if filter, ok := linkedFilters[t]; ok {
			query = append(query, filter)
		}
		listed, err := d.Client.ListIDs(ctx, t, strings.Join(query, ";"), status)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s resources: %w", t, err)
		}
		ids = append(ids, listed...)
	}
	return ids, nil
}

// date turns a number of days, a YYYY-MM-DD date or a resource id into the
// date used to filter by creation time.
func (d *Deleter) date(ctx context.Context, value string) (string, error) {
	if bigml.IsResourceID(value) {
		resource, err := d.Client.Get(ctx, value, "")
		if err != nil {
			return "", err
		}
		created := resource.Get("created").String()
		if created == "" {
			return "", fmt.Errorf("%s has no creation date", value)
		}
		return created, nil
	}
	date, err := util.ParseDate(value)
	if err != nil {
		return "", errWrongDate
	}
	return date, nil
}

func parseTypes(list string) (map[bigml.ResourceType]bool, error) {
	types := map[bigml.ResourceType]bool{}
	for _, name := range util.SplitList(list, ",") {
		t, err := bigml.ParseResourceType(name)
		if err != nil {
			return nil, err
		}
		types[t] = true
	}
	return types, nil
}

func filterTypes(ids []string, types map[bigml.ResourceType]bool) []string {
	var filtered []string
	for _, id := range ids {
		if len(types) == 0 || types[bigml.TypeOf(id)] {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// order removes duplicates and sorts the ids, moving datasets to the end
// so that the resources built from them go first.
func order(ids []string) []string {
	seen := map[string]bool{}
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Strings(unique)
	sort.SliceStable(unique, func(i, j int) bool {
		return bigml.TypeOf(unique[i]) != bigml.DatasetType && bigml.TypeOf(unique[j]) == bigml.DatasetType
	})
	return unique
}

func summarize(ids []string) []typeSummary {
	var summary []typeSummary
	index := map[bigml.ResourceType]int{}
	for _, id := range ids {
		t := bigml.TypeOf(id)
		i, ok := index[t]
		if !ok {
			i = len(summary)
			index[t] = i
			summary = append(summary, typeSummary{Type: string(t)})
		}
		summary[i].Count++
	}
	return summary
}

// printSummary shows the count by type and the first ids. The sessions log
// gets the full list.
func (d *Deleter) printSummary(ids []string) error {
	s := d.Session
	if s.Verbosity > 0 {
		if err := util.MarshalAndPrintTable(s.Console, summarize(ids)); err != nil {
			return err
		}
		shown := ids
		if len(ids) > rowsLimit {
			shown = ids[:rowsLimit]
			fmt.Fprintf(s.Console, "\nShowing only the first %d resources. See details in the sessions log.\n", rowsLimit)
		}
		fmt.Fprintf(s.Console, "\n%s\n\n", strings.Join(shown, "\n"))
	}
	s.LogMessage(strings.Join(ids, "\n")+"\n", false)
	return nil
}

// deleteAll deletes ids with at most --max-parallel-deletes requests at a
// time. Missing resources were deleted along with their owner.
func (d *Deleter) deleteAll(ctx context.Context, ids []string) error {
	errGroup, ctx := errgroup.WithContext(ctx)
	limit := d.Options.MaxParallelDeletes
	if limit < 1 {
		limit = 1
	}
	errGroup.SetLimit(limit)

	for _, id := range ids {
		resourceID := id
		errGroup.Go(func() error {
			query := ""
			if bigml.TypeOf(resourceID) == bigml.ExecutionType {
				query = "delete_all=true"
			}
			err := d.Client.Delete(ctx, resourceID, query)
			var apiErr *bigml.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				d.Session.Logger.Warn("resource already deleted", loggers.ResourceField(resourceID))
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", resourceID, err)
			}
			d.Session.Logger.Info("resource deleted", loggers.ResourceField(resourceID), zap.String("query", query))
			return nil
		})
	}
	return errGroup.Wait()
}
