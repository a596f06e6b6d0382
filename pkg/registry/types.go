package registry

import "time"

type ModuleMetadata struct {
	Namespace string        `json:"namespace"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Versions  []VersionInfo `json:"versions"`
}

type VersionInfo struct {
	Hash       string         `json:"hash"`
	FullDigest string         `json:"full_digest"`
	CreatedAt  time.Time      `json:"created_at"`
	Size       int64          `json:"size"`
	Tags       []string       `json:"tags"`
	Settings   ModuleSettings `json:"settings"`
}

// ModuleSettings are applied when the module is instantiated.
type ModuleSettings struct {
	// Language the module was compiled from, informational only
	Language     string   `json:"language,omitempty" yaml:"language" toml:"language"`
	Wasi         bool     `json:"wasi" yaml:"enable_wasi" toml:"enable_wasi"`
	AllowedHosts []string `json:"allowed_hosts,omitempty" yaml:"allowed_hosts" toml:"allowed_hosts"`
}

// Reference addresses a module version: namespace/name[:tag-or-digest].
type Reference struct {
	Namespace string
	Name      string
	Version   string
}

func (r Reference) String() string {
	return r.Namespace + "/" + r.Name + ":" + r.Version
}
