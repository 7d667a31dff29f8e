// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by commands that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ifc-pages/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ConversionBackend identifies how IfcConvert is executed.
type ConversionBackend string

const (
	// BackendLocal runs an IfcConvert binary found on the host.
	BackendLocal ConversionBackend = "local"
	// BackendContainer runs IfcConvert inside a docker or podman image.
	BackendContainer ConversionBackend = "container"
)

// ConversionConfig holds settings for the IFC-to-GLB conversion step.
type ConversionConfig struct {
	// Backend selects where IfcConvert runs: local or container.
	Backend ConversionBackend `json:"backend" yaml:"backend"`

	// Binary is an explicit path to IfcConvert. When empty the
	// IFCCONVERT_BIN environment variable and then PATH are searched.
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty"`

	// Image is the container image holding IfcConvert (container backend only).
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// ExtraArgs are passed to IfcConvert before the input and output operands.
	ExtraArgs []string `json:"extra_args,omitempty" yaml:"extra_args,omitempty"`

	// Timeout bounds a single conversion. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SiteConfig holds settings for the site build.
type SiteConfig struct {
	// IFCDir is the directory scanned for .ifc inputs (default "ifc").
	IFCDir string `json:"ifc_dir" yaml:"ifc_dir"`

	// SiteDir is the output directory published as the static site (default "site").
	SiteDir string `json:"site_dir" yaml:"site_dir"`

	// ViewerTemplate overrides the embedded per-model viewer. It may name a
	// single HTML file or a directory of viewer assets.
	ViewerTemplate string `json:"viewer_template,omitempty" yaml:"viewer_template,omitempty"`

	// RootTemplate overrides the embedded listing page (a single HTML file).
	RootTemplate string `json:"root_template,omitempty" yaml:"root_template,omitempty"`

	// Include lists glob patterns a file name must match to be built.
	// An empty list includes every .ifc file.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`

	// Exclude lists glob patterns that drop matching file names.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// Workers bounds how many models are processed concurrently (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// Incremental keeps the site directory and skips unchanged models.
	Incremental bool `json:"incremental" yaml:"incremental"`

	// Title is shown on the listing page.
	Title string `json:"title" yaml:"title"`
}

// FetchConfig holds settings for downloading IFC files into the input directory.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// IFCDir is the directory downloads are written to.
	IFCDir string `json:"ifc_dir" yaml:"ifc_dir"`

	// DownloadDelay is the delay between consecutive downloads.
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// MaxRetries bounds retries on throttled responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Token is an optional bearer token sent with every request.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

// CatalogConfig holds settings for the SQLite build catalog.
type CatalogConfig struct {
	// Path is the database file (default ".ifc-pages/catalog.db").
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// WatchConfig holds settings for the watch command.
type WatchConfig struct {
	// Debounce is how long the watcher waits for events to settle
	// before rebuilding (default 500ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// PipelineConfig groups all configuration sections.
type PipelineConfig struct {
	Site       SiteConfig       `json:"site" yaml:"site"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog"`
	Watch      WatchConfig      `json:"watch" yaml:"watch"`
}
