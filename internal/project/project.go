// Package project models the projects listed in the registry and iterates them
// with per-project fault isolation.
package project

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/pinningd/internal/config"
	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

// Tree names a content tree of a project.
type Tree string

const (
	TreeWebsite Tree = "website"
	TreeAPI     Tree = "api"
)

// Trees lists every tree in publication order.
var Trees = []Tree{TreeWebsite, TreeAPI}

// Project is one publishable project.
type Project struct {
	// Name is the registry key.
	Name string
	// Domain is the public DNS name from the project's own config.
	Domain string
	// Dir is the project directory under the projects root.
	Dir string
}

func (p Project) WebsiteDir() string { return filepath.Join(p.Dir, "www") }
func (p Project) APIDir() string     { return filepath.Join(p.Dir, "api") }
func (p Project) PrivateDir() string { return filepath.Join(p.Dir, "private") }
func (p Project) ConfigPath() string { return filepath.Join(p.Dir, "config.json") }

// TreeDir returns the local directory of t.
func (p Project) TreeDir(t Tree) string {
	if t == TreeAPI {
		return p.APIDir()
	}
	return p.WebsiteDir()
}

// HasTree reports whether t exists as a directory.
func (p Project) HasTree(t Tree) bool {
	fi, err := os.Stat(p.TreeDir(t))
	return err == nil && fi.IsDir()
}

// DirName returns the directory name of a registry entry: its domain when
// present, its name otherwise.
func DirName(e config.RegistryEntry) string {
	if e.Domain != "" {
		return e.Domain
	}
	return e.Name
}

// DisplayName is the name used in logs for a registry entry.
func DisplayName(e config.RegistryEntry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.Domain
}

// Load resolves a registry entry into a Project. A missing config.json yields a
// ProjectSkipped error.
func Load(projectsDir string, e config.RegistryEntry) (Project, error) {
	name := DisplayName(e)
	dirName := DirName(e)
	if dirName == "" || dirName != filepath.Base(dirName) || dirName == "." || dirName == ".." {
		return Project{}, errors.ProjectSkipped("registry entry has no usable directory name").
			WithContext("project", name).
			Build()
	}
	p := Project{Name: name, Dir: filepath.Join(projectsDir, dirName)}

	pc, err := config.LoadProjectConfig(p.ConfigPath())
	if err != nil {
		return Project{}, errors.ProjectSkipped("project config unavailable").
			WithCause(err).
			WithContext("project", name).
			WithContext("path", p.ConfigPath()).
			Build()
	}
	p.Domain = pc.Domain
	return p, nil
}
