// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/coredb/coredb/coreerr"
)

// directive is one parsed line: a lowercased name plus its space-separated
// arguments, and the original raw text so unknown directives round-trip
// byte-for-byte.
type directive struct {
	name string
	args []string
	raw  string
}

// File is a directive file: the persisted state spec.md §4.5.9 and §6
// describe, loaded into memory and rewritten atomically on mutation.
type File struct {
	fs   afero.Fs
	path string
	dirs []directive
}

// Load reads and parses path off fs. A missing file is treated as empty.
func Load(fs afero.Fs, path string) (*File, error) {
	f := &File{fs: fs, path: path}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, coreerr.Wrap("config.Load", coreerr.PersistFailed, err)
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			f.dirs = append(f.dirs, directive{raw: line})
			continue
		}
		fields := strings.Fields(trimmed)
		name := strings.ToLower(fields[0])
		// "sentinel monitor" and similar two-word directives are named by
		// their first two tokens.
		args := fields[1:]
		if name == "sentinel" && len(fields) > 1 {
			name = name + " " + strings.ToLower(fields[1])
			args = fields[2:]
		}
		f.dirs = append(f.dirs, directive{name: name, args: args, raw: line})
	}
	if err := sc.Err(); err != nil {
		return nil, coreerr.Wrap("config.Load", coreerr.PersistFailed, err)
	}
	return f, nil
}

// Get returns the arguments of the first directive named name.
func (f *File) Get(name string) ([]string, bool) {
	name = strings.ToLower(name)
	for _, d := range f.dirs {
		if d.name == name {
			return d.args, true
		}
	}
	return nil, false
}

// GetAll returns the arguments of every directive named name, in file
// order, for repeatable directives like known-replica/known-sentinel.
func (f *File) GetAll(name string) [][]string {
	name = strings.ToLower(name)
	var out [][]string
	for _, d := range f.dirs {
		if d.name == name {
			out = append(out, d.args)
		}
	}
	return out
}

// GetInt returns the first directive's sole argument parsed as an int.
func (f *File) GetInt(name string, fallback int) int {
	args, ok := f.Get(name)
	if !ok || len(args) == 0 {
		return fallback
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fallback
	}
	return n
}

// Set replaces the first directive named name with the given arguments,
// or appends a new one if none exists.
func (f *File) Set(name string, args ...string) {
	name = strings.ToLower(name)
	for i, d := range f.dirs {
		if d.name == name {
			f.dirs[i] = directive{name: name, args: args, raw: renderLine(name, args)}
			return
		}
	}
	f.dirs = append(f.dirs, directive{name: name, args: args, raw: renderLine(name, args)})
}

// Add appends a new directive line unconditionally (for repeatable
// directives such as known-replica).
func (f *File) Add(name string, args ...string) {
	name = strings.ToLower(name)
	f.dirs = append(f.dirs, directive{name: name, args: args, raw: renderLine(name, args)})
}

// RemoveAll deletes every directive named name.
func (f *File) RemoveAll(name string) {
	name = strings.ToLower(name)
	out := f.dirs[:0]
	for _, d := range f.dirs {
		if d.name != name {
			out = append(out, d)
		}
	}
	f.dirs = out
}

func renderLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// Rewrite atomically persists the file: write new content to a sibling
// temp file, fsync, then rename over the original, per spec.md §4.5.9.
// Unknown directives and comments survive unchanged, since they were kept
// as raw lines during Load.
func (f *File) Rewrite() error {
	var buf bytes.Buffer
	for _, d := range f.dirs {
		buf.WriteString(d.raw)
		buf.WriteByte('\n')
	}

	tmp := f.path + ".tmp"
	fh, err := f.fs.Create(tmp)
	if err != nil {
		return coreerr.Wrap("config.Rewrite", coreerr.PersistFailed, err)
	}
	if _, err := fh.Write(buf.Bytes()); err != nil {
		_ = fh.Close()
		return coreerr.Wrap("config.Rewrite", coreerr.PersistFailed, err)
	}
	if syncer, ok := fh.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			_ = fh.Close()
			return coreerr.Wrap("config.Rewrite", coreerr.PersistFailed, err)
		}
	}
	if err := fh.Close(); err != nil {
		return coreerr.Wrap("config.Rewrite", coreerr.PersistFailed, err)
	}
	if err := f.fs.Rename(tmp, f.path); err != nil {
		return coreerr.Wrap("config.Rewrite", coreerr.PersistFailed, err)
	}
	return nil
}

// Dir returns the directory containing the file's path.
func (f *File) Dir() string { return filepath.Dir(f.path) }
