// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists node defaults as a flat YAML mapping of upper-case
// keys to string values.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	nodeerrors "github.com/tombee/nodecfg/pkg/errors"
)

// DefaultPath is the defaults file used when no --config is given.
const DefaultPath = "/etc/default/nodecfg.yaml"

var (
	// ErrLockTimeout is returned when another process holds the file lock.
	ErrLockTimeout = errors.New("defaults file locked by another process")
)

const (
	lockTimeout  = 5 * time.Second
	lockInterval = 100 * time.Millisecond
)

// File is one defaults file on disk.
type File struct {
	path     string
	lockFile *os.File
}

// Open returns a File for path, or DefaultPath when path is empty. The file
// need not exist yet.
func Open(path string) *File {
	if path == "" {
		path = DefaultPath
	}
	return &File{path: path}
}

// Path returns the location of the defaults file.
func (f *File) Path() string {
	return f.path
}

// Load reads every key. A missing file is an empty mapping.
func (f *File) Load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, nodeerrors.Wrap(err, "failed to read defaults file")
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, nodeerrors.Wrapf(err, "failed to parse defaults file %s", f.path)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

// Get returns one key and whether it was present.
func (f *File) Get(key string) (string, bool, error) {
	values, err := f.Load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Update merges updates into the file under an exclusive lock. The file is
// re-read after locking and replaced atomically.
func (f *File) Update(updates map[string]string) error {
	return f.withLock(func() error {
		values, err := f.Load()
		if err != nil {
			return err
		}
		for k, v := range updates {
			values[k] = v
		}
		return f.save(values)
	})
}

// Check runs every check Update would make, in the same order, without
// changing the defaults file: the directory must be creatable, the lock
// must be obtainable and the current content must parse. When no lock file
// exists yet a scratch file is created in its place and removed again.
func (f *File) Check() error {
	dir, err := nearestDir(filepath.Dir(f.path))
	if err != nil {
		return nodeerrors.Wrap(err, "failed to create defaults directory")
	}

	lockFile, err := os.OpenFile(f.path+".lock", os.O_RDWR, 0)
	switch {
	case os.IsNotExist(err):
		tmp, err := os.CreateTemp(dir, ".nodecfg-check-*")
		if err != nil {
			return nodeerrors.Wrap(err, "failed to open lock file")
		}
		tmp.Close()
		os.Remove(tmp.Name())
	case err != nil:
		return nodeerrors.Wrap(err, "failed to open lock file")
	default:
		err := acquire(lockFile)
		if err == nil {
			err = syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		}
		lockFile.Close()
		if err != nil {
			return err
		}
	}

	_, err = f.Load()
	return err
}

// nearestDir returns dir or its closest existing ancestor, which is where
// MkdirAll would start creating. An existing non-directory on the way is
// an error.
func nearestDir(dir string) (string, error) {
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", &os.PathError{Op: "mkdir", Path: dir, Err: syscall.ENOTDIR}
			}
			return dir, nil
		}
		if !os.IsNotExist(err) && !errors.Is(err, syscall.ENOTDIR) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, nil
		}
		dir = parent
	}
}

func (f *File) save(values map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nodeerrors.Wrap(err, "failed to create defaults directory")
	}

	data, err := yaml.Marshal(values)
	if err != nil {
		return nodeerrors.Wrap(err, "failed to marshal defaults")
	}

	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return nodeerrors.Wrap(err, "failed to write temporary file")
	}
	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return nodeerrors.Wrap(err, "failed to rename temporary file")
	}
	return nil
}

func (f *File) withLock(fn func() error) error {
	if err := f.lock(); err != nil {
		return err
	}
	defer f.unlock()

	return fn()
}

func (f *File) lock() error {
	lockPath := f.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nodeerrors.Wrap(err, "failed to create defaults directory")
	}

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nodeerrors.Wrap(err, "failed to open lock file")
	}
	if err := acquire(lockFile); err != nil {
		lockFile.Close()
		return err
	}
	f.lockFile = lockFile
	return nil
}

// acquire takes an exclusive flock on lockFile, polling until lockTimeout.
func acquire(lockFile *os.File) error {
	deadline := time.Now().Add(lockTimeout)
	ticker := time.NewTicker(lockInterval)
	defer ticker.Stop()

	for {
		if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}
		<-ticker.C
	}
}

func (f *File) unlock() {
	if f.lockFile == nil {
		return
	}
	_ = syscall.Flock(int(f.lockFile.Fd()), syscall.LOCK_UN)
	_ = f.lockFile.Close()
	f.lockFile = nil
}
