package config

import (
	"github.com/hashicorp/go-hclog"

	kerrors "github.com/provide-io/cargokit/pkg/errors"
	"github.com/provide-io/cargokit/pkg/logging"
)

// Registry collects the declared dependencies of a build unit per class.
// Resolved entries render as they are; unresolved ones are local references
// that need a record from the resolver first.
type Registry struct {
	resolved   map[Class][]*Dependency
	unresolved map[Class][]*Dependency
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		resolved:   make(map[Class][]*Dependency),
		unresolved: make(map[Class][]*Dependency),
	}
}

// Add registers a dependency that is ready to render.
func (r *Registry) Add(class Class, dep *Dependency) {
	r.resolved[class] = append(r.resolved[class], dep)
}

// AddUnresolved registers a local dependency. Its options are merged into
// the resolver's record of the same name by Merge.
func (r *Registry) AddUnresolved(class Class, dep *Dependency) {
	dep.Version = Unresolved
	r.unresolved[class] = append(r.unresolved[class], dep)
}

// Resolved returns the ready entries of class in declaration order.
func (r *Registry) Resolved(class Class) []*Dependency {
	return append([]*Dependency(nil), r.resolved[class]...)
}

// Unresolved returns the local references of class in declaration order.
func (r *Registry) Unresolved(class Class) []*Dependency {
	return append([]*Dependency(nil), r.unresolved[class]...)
}

// Len returns the number of entries of both lists across all classes.
func (r *Registry) Len() int {
	n := 0
	for _, c := range Classes {
		n += len(r.resolved[c]) + len(r.unresolved[c])
	}
	return n
}

// optionalNames returns the names of optional entries in every class.
func (r *Registry) optionalNames() map[string]bool {
	names := make(map[string]bool)
	for _, class := range Classes {
		for _, list := range [][]*Dependency{r.resolved[class], r.unresolved[class]} {
			for _, d := range list {
				if d.Optional.Value() {
					names[d.Name] = true
				}
			}
		}
	}
	return names
}

// Merge produces the final entry list of class: the resolved entries
// followed by records, each record taking the options of the unresolved
// entry with its project reference, or else its name, wherever the record
// leaves them unset. The registry itself is not modified.
func (r *Registry) Merge(class Class, records []*Dependency, logger hclog.Logger) ([]*Dependency, error) {
	logger = logging.OrNull(logger)

	registryNames := make(map[string]bool)
	for _, d := range r.resolved[class] {
		registryNames[d.Name] = true
	}
	for _, u := range r.unresolved[class] {
		if registryNames[u.Name] {
			return nil, &kerrors.AmbiguousDependencyError{Class: class.Table(), Name: u.Name}
		}
	}

	out := make([]*Dependency, 0, len(r.resolved[class])+len(records))
	for _, d := range r.resolved[class] {
		out = append(out, d.Clone())
	}

	byName := make(map[string][]*Dependency)
	byProject := make(map[string][]*Dependency)
	for _, rec := range records {
		if registryNames[rec.Name] {
			return nil, &kerrors.AmbiguousDependencyError{Class: class.Table(), Name: rec.Name}
		}
		c := rec.Clone()
		byName[c.Name] = append(byName[c.Name], c)
		if c.Project != "" {
			byProject[c.Project] = append(byProject[c.Project], c)
		}
		out = append(out, c)
	}

	for _, u := range r.unresolved[class] {
		// The producer's package name may differ from the directory the
		// entry points at, so the project reference is matched first.
		matches := byProject[u.Project]
		if u.Project == "" || len(matches) == 0 {
			matches = byName[u.Name]
		}
		switch len(matches) {
		case 0:
			logger.Warn("⚠️ Local dependency has no resolved record, skipping",
				"class", class.Table(), "name", u.Name, "project", u.Project,
				"error", kerrors.ErrUnresolvedReference)
		case 1:
			matches[0].CopyIfNotSetFrom(u)
		default:
			return nil, &kerrors.AmbiguousDependencyError{Class: class.Table(), Name: u.Name}
		}
	}
	return out, nil
}
