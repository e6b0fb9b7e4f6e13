package filesystem

import (
	"io"
	"os"
)

// GacheFs is the gache.FileSystem of the resume history. It resolves the backend on every call,
// so a cache created at init follows a later SetMemMapFs.
type GacheFs struct{}

func (GacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return API().OpenFile(name, flag, perm)
}

func (GacheFs) MkdirAll(path string, perm os.FileMode) error {
	return API().MkdirAll(path, perm)
}
