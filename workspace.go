/*
Copyright © 2021 the URC authors.
This file is part of URC.

URC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

URC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with URC.  If not, see <http://www.gnu.org/licenses/>.
*/

package urc

import (
	"os"
	"path/filepath"
	"sort"
)

// A Workspace maps symbolic names to file paths anchored at a root
// directory. Relative paths resolve against the root; absolute paths
// pass through unchanged.
type Workspace struct {
	Dir   string
	paths map[string]string
}

// NewWorkspace creates a workspace rooted at dir.
func NewWorkspace(dir string) *Workspace {
	return &Workspace{Dir: dir, paths: make(map[string]string)}
}

// Set registers a path under the symbolic name key.
func (w *Workspace) Set(key, path string) {
	w.paths[key] = path
}

// Contains reports whether key is registered.
func (w *Workspace) Contains(key string) bool {
	_, ok := w.paths[key]
	return ok
}

// Resolve returns the absolute path for key, and whether key is
// registered.
func (w *Workspace) Resolve(key string) (string, bool) {
	p, ok := w.paths[key]
	if !ok {
		return "", false
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(w.Dir, p)
	}
	return p, true
}

// Delete removes key from the workspace.
func (w *Workspace) Delete(key string) {
	delete(w.paths, key)
}

// Keys returns the registered names in sorted order.
func (w *Workspace) Keys() []string {
	keys := make([]string, 0, len(w.paths))
	for k := range w.paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Exists reports whether key resolves to an existing file.
func (w *Workspace) Exists(key string) bool {
	p, ok := w.Resolve(key)
	if !ok {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// MissingFiles returns the keys that do not resolve to existing
// files.
func (w *Workspace) MissingFiles() []string {
	var missing []string
	for _, k := range w.Keys() {
		if !w.Exists(k) {
			missing = append(missing, k)
		}
	}
	return missing
}
