package models

// ProjectKind is the kind of project recorded in the dot-config meta.type field.
type ProjectKind string

const (
	ProjectKindFrontend  ProjectKind = "frontend"
	ProjectKindBackend   ProjectKind = "backend"
	ProjectKindWordPress ProjectKind = "wordpress"
)

// NeedsBuild reports whether projects of this kind go through the front-end build step.
func (k ProjectKind) NeedsBuild() bool {
	return k == "" || k == ProjectKindFrontend
}

// ProjectMetadata is the merged view of package.json, the dot-config file and
// command-line flags for a single publish invocation.
type ProjectMetadata struct {
	Dir           string
	Name          string
	PackageName   string
	Domain        string
	Hash          string
	PublishMethod PublishMethod // persisted preference, empty when none
	Kind          ProjectKind
	Starter       string
	Technology    string // backend.platform

	Dependencies map[string]string
	BuildScript  string
	TestScript   string
}

// HasDependency reports whether name is declared in dependencies or devDependencies.
func (m *ProjectMetadata) HasDependency(name string) bool {
	_, ok := m.Dependencies[name]
	return ok
}

// HasBuildScript reports whether the manifest declares scripts.build.
func (m *ProjectMetadata) HasBuildScript() bool {
	return m.BuildScript != ""
}

// HasTestScript reports whether the manifest declares scripts.test.
func (m *ProjectMetadata) HasTestScript() bool {
	return m.TestScript != ""
}
