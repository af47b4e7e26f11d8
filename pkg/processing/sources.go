package processing

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/bigmler/bigmler/pkg/annotations"
	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/fields"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/bigmler/bigmler/pkg/session"
)

var remoteSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"s3":    true,
	"azure": true,
	"gcs":   true,
	"gs":    true,
	"odata": true,
}

func isURL(path string) bool {
	u, err := url.Parse(path)
	if err != nil {
		return false
	}
	return remoteSchemes[u.Scheme] && u.Host != ""
}

// processProject creates the --project project, reusing the one with the
// same name when it exists. New sources are added to it.
func (p *Pipeline) processProject(ctx context.Context) error {
	o := p.Options
	if o.Project == "" || o.ProjectID != "" {
		return nil
	}

	if id := p.resumed(resources.Project.LogFile, "Project not found. Resuming.\n", bigml.ProjectType); id != "" {
		o.ProjectID = id
		return nil
	}

	id, err := p.Manager.Client.LastResourceID(ctx, bigml.ProjectType, "name="+url.QueryEscape(o.Project))
	if err != nil {
		return fmt.Errorf("failed to look for project %s: %w", o.Project, err)
	}
	if id != "" {
		if err := p.session().LogCreatedResource(resources.Project.LogFile, id, "", session.Overwrite); err != nil {
			return err
		}
		o.ProjectID = id
		return nil
	}

	args, err := resources.ProjectArgs(o, p.Inputs, o.Project)
	if err != nil {
		return err
	}
	project, err := p.Manager.Create(ctx, resources.Project, args)
	if err != nil {
		return err
	}
	o.ProjectID = project.ID
	return nil
}

// processSource retrieves the --source or creates a new one from the
// training data: a local file, a URL or an external connector query.
func (p *Pipeline) processSource(ctx context.Context) error {
	o := p.Options
	if o.Source != "" {
		source, err := p.Manager.Get(ctx, resources.Source, o.Source)
		if err != nil {
			return err
		}
		p.source = source
		return p.updateSource(ctx)
	}
	if o.Train == "" && o.ExternalConnector == "" {
		return nil
	}

	if id := p.resumed(resources.Source.LogFile, "Source not found. Resuming.\n", bigml.SourceType); id != "" {
		source, err := p.Manager.Get(ctx, resources.Source, id)
		if err != nil {
			return err
		}
		p.source = source
		return nil
	}

	var source *bigml.Resource
	var err error
	if o.Train != "" {
		source, err = p.createSource(ctx, o.Train, o, &o.TrainHeader, resources.Source.LogFile)
	} else {
		args := resources.ExternalSourceArgs(o, p.Inputs, &resources.ConnectorData{
			ExternalConnectorID: o.ExternalConnector,
			Query:               o.ExternalQuery,
		})
		source, err = p.Manager.Create(ctx, resources.Source, args)
	}
	if err != nil {
		return err
	}
	p.source = source
	return p.updateSource(ctx)
}

// createSource creates a source from path, which can be a file, a URL or a
// JSON file describing an external connector query.
func (p *Pipeline) createSource(ctx context.Context, path string, o *config.Options, header *bool, logFile string) (*bigml.Resource, error) {
	if isURL(path) {
		args := resources.SourceArgs(o, p.Inputs, header)
		args["name"] = nameOr(o.Name, path)
		args["remote"] = path
		return p.Manager.CreateIn(ctx, resources.Source, args, logFile)
	}
	if data, ok := resources.ReadConnectorData(path); ok {
		args := resources.ExternalSourceArgs(o, p.Inputs, data)
		args["name"] = nameOr(o.Name, filepath.Base(path))
		return p.Manager.CreateIn(ctx, resources.Source, args, logFile)
	}

	args := resources.SourceArgs(o, p.Inputs, header)
	if o.Name == "" {
		args["name"] = filepath.Base(path)
	}
	return p.Manager.CreateSource(ctx, path, args, logFile)
}

// updateSource applies the field attributes, types and source attributes.
func (p *Pipeline) updateSource(ctx context.Context) error {
	in := p.Inputs
	if in.FieldAttributes == nil && in.Types == nil && len(in.JSONArgs[resources.SourceAttributes]) == 0 {
		return nil
	}
	f, err := fields.FromResource(p.source)
	if err != nil {
		return err
	}
	args, err := resources.SourceUpdateArgs(p.Options, p.Inputs, f)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	source, err := p.Manager.Update(ctx, resources.Source, p.source.ID, args)
	if err != nil {
		return err
	}
	p.source = source
	return nil
}

// RunSource creates a source, converting the YOLO or VOC annotations and
// zipping the images directory when annotated images are given.
func (p *Pipeline) RunSource(ctx context.Context) error {
	o := p.Options
	if err := p.processProject(ctx); err != nil {
		return err
	}

	if o.ImagesDir != "" || o.ImagesFile != "" || o.AnnotationsFile != "" || o.AnnotationsDir != "" {
		upload, err := p.annotatedUpload()
		if err != nil {
			return err
		}
		o.Train = upload
		o.TrainHeader = true
	}
	if err := p.processSource(ctx); err != nil {
		return err
	}
	return p.session().PrintGeneratedFiles()
}

// annotatedUpload builds the file that uploads annotated images: the images
// zip or a metadata file pointing to it and to the annotations.
func (p *Pipeline) annotatedUpload() (string, error) {
	o := p.Options
	annotationsFile := o.AnnotationsFile
	var images []string

	if o.AnnotationsDir != "" {
		output := p.session().Path(annotations.AnnotationsFilename)
		var conversion *annotations.Conversion
		var err error
		switch o.AnnotationsLanguage {
		case annotations.YOLO:
			conversion, err = annotations.ConvertYOLO(o.AnnotationsDir, o.ImagesDir, output, p.session())
		case annotations.VOC:
			conversion, err = annotations.ConvertVOC(o.AnnotationsDir, o.ImagesDir, output, p.session())
		default:
			return "", fmt.Errorf("--annotations-dir needs --annotations-language %s or %s", annotations.YOLO, annotations.VOC)
		}
		if err != nil {
			return "", err
		}
		annotationsFile = output
		images = conversion.Images
	}

	return annotations.BuildMetadata(annotations.MetadataOptions{
		OutputDir:       p.session().Dir,
		ImagesDir:       o.ImagesDir,
		ImagesFile:      o.ImagesFile,
		AnnotationsFile: annotationsFile,
		Images:          images,
	})
}
