package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ReadFile reads the events of a .json or .slcio file. lcioCollections is
// used for LCIO files only.
func ReadFile(path string, lcioCollections map[string]string) ([]*Memory, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".slcio":
		return LCIO{Collections: lcioCollections}.Read(path)
	}
	return nil, fmt.Errorf("unsupported event file %q: expected .json or .slcio", path)
}
