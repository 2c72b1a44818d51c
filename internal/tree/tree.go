package tree

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Paintersrp/chatseek/internal/logger"
	"github.com/Paintersrp/chatseek/internal/pathutil"
)

const (
	TypeFolder = "folder"
	TypeFile   = "file"
)

// Node is one entry of the archive tree. Path is relative to the root and
// uses forward slashes.
type Node struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Path     string  `json:"path"`
	Children []*Node `json:"children,omitempty"`
}

// Options controls how deep Build descends and which entries it lists.
type Options struct {
	MaxDepth   int
	ShowHidden bool
	// Extensions lists the file extensions to include. Defaults to ".md".
	Extensions []string
}

// Build lists the folders and indexable files under root. Folders come
// before files and both are sorted by name. Directories that cannot be read
// are listed without children.
func Build(root string, opts Options) (*Node, error) {
	normalized := pathutil.NormalizePath(root)
	info, err := os.Stat(normalized)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "tree", Path: normalized, Err: os.ErrInvalid}
	}

	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 3
	}
	exts := make(map[string]struct{})
	for _, ext := range opts.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = struct{}{}
	}
	if len(exts) == 0 {
		exts[".md"] = struct{}{}
	}

	b := builder{root: normalized, opts: opts, exts: exts}
	node := &Node{Name: filepath.Base(normalized), Type: TypeFolder, Path: ""}
	node.Children = b.children(normalized, 0)
	return node, nil
}

type builder struct {
	root string
	opts Options
	exts map[string]struct{}
}

func (b builder) children(dir string, depth int) []*Node {
	if depth >= b.opts.MaxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("tree: skipping %s: %v", dir, err)
		return nil
	}

	var folders, files []*Node
	for _, entry := range entries {
		name := entry.Name()
		if !b.opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}

		full := filepath.Join(dir, name)
		rel, err := pathutil.ArchiveRelative(b.root, full)
		if err != nil {
			continue
		}

		isDir := entry.IsDir()
		if entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(full); err == nil {
				isDir = info.IsDir()
			}
		}

		if isDir {
			folders = append(folders, &Node{
				Name:     name,
				Type:     TypeFolder,
				Path:     rel,
				Children: b.children(full, depth+1),
			})
			continue
		}

		if _, ok := b.exts[strings.ToLower(filepath.Ext(name))]; ok {
			files = append(files, &Node{Name: name, Type: TypeFile, Path: rel})
		}
	}

	sort.Slice(folders, func(i, j int) bool { return folders[i].Name < folders[j].Name })
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return append(folders, files...)
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the node's children.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Count returns the number of folders and files below n.
func (n *Node) Count() (folders, files int) {
	n.Walk(func(node *Node, depth int) bool {
		if depth == 0 {
			return true
		}
		if node.Type == TypeFolder {
			folders++
		} else {
			files++
		}
		return true
	})
	return folders, files
}
