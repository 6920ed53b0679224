package config

// PackageMetadata holds the [package] table of the manifest.
type PackageMetadata struct {
	Name          Field[string]
	Version       Field[string]
	Authors       Field[[]string]
	Edition       Field[string]
	RustVersion   Field[string]
	Description   Field[string]
	Documentation Field[string]
	Readme        Field[string]
	Homepage      Field[string]
	Repository    Field[string]
	License       Field[string]
	LicenseFile   Field[string]
	Keywords      Field[[]string]
	Categories    Field[[]string]
	Workspace     Field[string]
	Build         Field[string]
	Links         Field[string]
	Include       Field[[]string]
	Exclude       Field[[]string]
	// PublishDisabled renders publish = false when true.
	PublishDisabled Field[bool]
	// PublishRegistries renders publish = [...] allow-list.
	PublishRegistries Field[[]string]
	DefaultRun        Field[string]
	AutoBins          Field[bool]
	AutoExamples      Field[bool]
	AutoTests         Field[bool]
	AutoBenches       Field[bool]
}

// unspecifiedVersion is what build units report when they declare none.
const unspecifiedVersion = "unspecified"

// NormalizeVersion maps a missing build unit version to 0.0.0.
func NormalizeVersion(v string) string {
	if v == "" || v == unspecifiedVersion {
		return "0.0.0"
	}
	return v
}

func (p *PackageMetadata) applyConventions(unitName, unitVersion, unitDescription string) {
	p.Name.Convention(func() (string, bool) { return unitName, unitName != "" })
	p.Version.Convention(func() (string, bool) { return NormalizeVersion(unitVersion), true })
	p.Description.Convention(func() (string, bool) { return unitDescription, unitDescription != "" })
}

// Finalize resolves conventions and freezes every field.
func (p *PackageMetadata) Finalize() {
	finalizeAll(
		&p.Name, &p.Version, &p.Authors, &p.Edition, &p.RustVersion,
		&p.Description, &p.Documentation, &p.Readme, &p.Homepage,
		&p.Repository, &p.License, &p.LicenseFile, &p.Keywords,
		&p.Categories, &p.Workspace, &p.Build, &p.Links, &p.Include,
		&p.Exclude, &p.PublishDisabled, &p.PublishRegistries, &p.DefaultRun,
		&p.AutoBins, &p.AutoExamples, &p.AutoTests, &p.AutoBenches,
	)
}
