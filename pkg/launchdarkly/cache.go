package launchdarkly

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheMaxAge bounds how stale a persisted project listing
// may be before it is refetched
const DefaultCacheMaxAge = time.Hour

// ProjectCache holds a listing of projects so interactive flows that
// need the list repeatedly don't re-page through the API. When Path
// is set the listing survives across invocations, callers opt into
// a refresh explicitly
type ProjectCache struct {
	// Path is the file the listing is persisted to, an empty path
	// keeps the cache in memory only
	Path string

	// MaxAge overrides DefaultCacheMaxAge when positive
	MaxAge time.Duration

	projects []Project
	loadedAt time.Time
}

func (pc *ProjectCache) IsLoaded() bool {
	return !pc.loadedAt.IsZero()
}

func (pc *ProjectCache) LoadedAt() time.Time {
	return pc.loadedAt
}

// Get returns the cached listing, fetching it through `client` when
// neither memory nor the persisted file holds a fresh one, or when
// `forceRefresh` is set
func (pc *ProjectCache) Get(client *Client, forceRefresh bool) ([]Project, error) {
	if !forceRefresh {
		if pc.IsLoaded() {
			return pc.projects, nil
		}
		if pc.restore() {
			return pc.projects, nil
		}
	}
	projects, err := client.ListProjects()
	if err != nil {
		return nil, err
	}
	pc.projects = projects
	pc.loadedAt = time.Now()
	pc.persist()
	return pc.projects, nil
}

type persistedProjects struct {
	LoadedAt time.Time `json:"loadedAt"`
	Projects []Project `json:"projects"`
}

func (pc *ProjectCache) maxAge() time.Duration {
	if pc.MaxAge > 0 {
		return pc.MaxAge
	}
	return DefaultCacheMaxAge
}

func (pc *ProjectCache) restore() bool {
	if pc.Path == "" {
		return false
	}
	data, err := os.ReadFile(pc.Path)
	if err != nil {
		return false
	}
	var persisted persistedProjects
	if err := json.Unmarshal(data, &persisted); err != nil {
		return false
	}
	if time.Since(persisted.LoadedAt) > pc.maxAge() {
		return false
	}
	pc.projects = persisted.Projects
	pc.loadedAt = persisted.LoadedAt
	return true
}

// persist is best-effort, an unwritable cache file never fails the
// listing
func (pc *ProjectCache) persist() {
	if pc.Path == "" {
		return
	}
	data, err := json.MarshalIndent(persistedProjects{
		LoadedAt: pc.loadedAt,
		Projects: pc.projects,
	}, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(pc.Path), 0o755); err != nil {
		return
	}
	os.WriteFile(pc.Path, data, 0o600)
}
