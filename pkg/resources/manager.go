package resources

import (
	"context"
	"fmt"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/session"
	"github.com/bigmler/bigmler/pkg/util"
	"go.uber.org/zap"
)

// Manager creates, retrieves and updates resources, logging every step in
// the session.
type Manager struct {
	Client  *bigml.Client
	Session *session.Session
}

func NewManager(client *bigml.Client, s *session.Session) *Manager {
	return &Manager{Client: client, Session: s}
}

func (m *Manager) URL(id string) string {
	return m.Client.Connection().ResourceURL(id)
}

// Create creates a resource of the given kind and waits for it to finish.
func (m *Manager) Create(ctx context.Context, kind Kind, args Args) (*bigml.Resource, error) {
	m.Session.Dated(fmt.Sprintf("Creating %s.\n", kind.Name))
	resource, err := m.Client.Create(ctx, kind.Type, args)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind.Name, err)
	}
	return m.finish(ctx, kind, resource, "")
}

// CreateSource uploads a local file as a new source.
func (m *Manager) CreateSource(ctx context.Context, path string, args Args, logFile string) (*bigml.Resource, error) {
	m.Session.Dated("Creating source.\n")
	resource, err := m.Client.CreateSourceFromFile(ctx, path, args)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	kind := Source
	kind.LogFile = logFile
	return m.finish(ctx, kind, resource, resource.Name()+"\n")
}

// CreateIn creates the resource and logs its id in logFile instead of the
// kind default.
func (m *Manager) CreateIn(ctx context.Context, kind Kind, args Args, logFile string) (*bigml.Resource, error) {
	kind.LogFile = logFile
	return m.Create(ctx, kind, args)
}

func (m *Manager) finish(ctx context.Context, kind Kind, resource *bigml.Resource, comment string) (*bigml.Resource, error) {
	if err := m.Session.LogCreatedResource(kind.LogFile, resource.ID, comment, session.Append); err != nil {
		return nil, err
	}
	m.Session.Logger.Info("resource created", zap.String("resource", resource.ID))

	finished, err := m.Client.CheckResource(ctx, resource.ID, bigml.CheckOptions{Query: kind.Query()})
	if err != nil {
		return finished, fmt.Errorf("failed to get a finished %s: %w", kind.Name, err)
	}
	m.Session.Dated(fmt.Sprintf("%s created: %s\n", kind.Title(), m.URL(finished.ID)))
	return finished, nil
}

// Get retrieves a resource waiting for it to be finished.
func (m *Manager) Get(ctx context.Context, kind Kind, id string) (*bigml.Resource, error) {
	m.Session.Dated(fmt.Sprintf("Retrieving %s. %s\n", kind.Name, m.URL(id)))
	resource, err := m.Client.CheckResource(ctx, id, bigml.CheckOptions{Query: kind.Query()})
	if err != nil {
		return resource, fmt.Errorf("failed to get a finished %s: %w", kind.Name, err)
	}
	return resource, nil
}

// Update changes the resource attributes and waits for it to be finished.
func (m *Manager) Update(ctx context.Context, kind Kind, id string, args Args) (*bigml.Resource, error) {
	m.Session.Dated(fmt.Sprintf("Updating %s. %s\n", kind.Name, m.URL(id)))
	if _, err := m.Client.Update(ctx, id, args); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", kind.Name, err)
	}
	resource, err := m.Client.CheckResource(ctx, id, bigml.CheckOptions{Query: kind.Query()})
	if err != nil {
		return resource, fmt.Errorf("failed to get a finished %s: %w", kind.Name, err)
	}
	return resource, nil
}

// CreateMany creates one resource per element of argsList keeping at most
// maxParallel of them in progress, then waits for all of them.
func (m *Manager) CreateMany(ctx context.Context, kind Kind, argsList []Args, maxParallel int) ([]*bigml.Resource, error) {
	if len(argsList) == 0 {
		return nil, nil
	}
	m.Session.Dated(fmt.Sprintf("Creating %s.\n", pluralName(kind.Name, len(argsList))))

	var ids []string
	var inprogress []string
	for _, args := range argsList {
		var err error
		if inprogress, err = m.Client.WaitForAvailableTasks(ctx, inprogress, maxParallel, kind.Name); err != nil {
			return nil, err
		}
		resource, err := m.Client.Create(ctx, kind.Type, args)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", kind.Name, err)
		}
		if err := m.Session.LogCreatedResource(kind.LogFile, resource.ID, "", session.Append); err != nil {
			return nil, err
		}
		ids = append(ids, resource.ID)
		inprogress = append(inprogress, resource.ID)
	}

	resources := make([]*bigml.Resource, 0, len(ids))
	for _, id := range ids {
		resource, err := m.Client.CheckResource(ctx, id, bigml.CheckOptions{Query: kind.Query()})
		if err != nil {
			return nil, fmt.Errorf("failed to get a finished %s: %w", kind.Name, err)
		}
		resources = append(resources, resource)
	}
	if len(resources) == 1 {
		m.Session.Dated(fmt.Sprintf("%s created: %s\n", kind.Title(), m.URL(resources[0].ID)))
	} else {
		m.Session.Dated(fmt.Sprintf("%s created.\n", pluralName(kind.Title(), len(resources))))
	}
	return resources, nil
}

func pluralName(name string, n int) string {
	if n == 1 {
		return name
	}
	return fmt.Sprintf("%d %s", n, util.Plural(name, n))
}
