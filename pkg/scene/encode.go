package scene

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownFormat is returned by EncoderFor for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown scene format")

// Encoder persists a scene tree. Only the root and the nodes owned by it are
// written; unowned subtrees are dropped.
type Encoder interface {
	Encode(w io.Writer, t *Tree) error
	// Ext is the file extension of the encoded scene, without a dot.
	Ext() string
}

// Formats lists the supported output formats.
var Formats = []string{"tscn", "yaml"}

// EncoderFor returns the encoder for a format name. Resource paths are
// written with prefix in front of them.
func EncoderFor(format, prefix string) (Encoder, error) {
	switch strings.ToLower(format) {
	case "tscn", "":
		return &TSCNEncoder{ResourcePrefix: prefix}, nil
	case "yaml", "yml":
		return &YAMLEncoder{ResourcePrefix: prefix}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// persisted reports whether id is saved when root is the scene root.
func persisted(t *Tree, root, id NodeID) bool {
	return id == root || t.Node(id).Owner == root
}

func resourcePath(prefix, p string) string {
	if p == "" || strings.Contains(p, "://") {
		return p
	}
	return prefix + strings.TrimPrefix(p, "/")
}
