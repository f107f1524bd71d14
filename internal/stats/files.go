package stats

import (
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/runnerr0/trailscope/internal/model"
)

// DefaultCategory is used for extensions missing from the category table.
const DefaultCategory = "other"

// FileNode is a directory or file in the access tree. Files carry the
// access count and timestamps, newest first.
type FileNode struct {
	Name     string      `json:"name"`
	Count    int         `json:"count,omitempty"`
	Accessed []time.Time `json:"accessed,omitempty"`
	Children []*FileNode `json:"children,omitempty"`

	index map[string]*FileNode
}

func (n *FileNode) child(name string) *FileNode {
	if n.index == nil {
		n.index = make(map[string]*FileNode)
	}
	c, ok := n.index[name]
	if !ok {
		c = &FileNode{Name: name}
		n.index[name] = c
		n.Children = append(n.Children, c)
	}
	return c
}

func (n *FileNode) finish() {
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	sort.Slice(n.Accessed, func(i, j int) bool { return n.Accessed[i].After(n.Accessed[j]) })
	for _, c := range n.Children {
		c.finish()
	}
}

// FileCategory groups the files of one extension category on a drive.
type FileCategory struct {
	Name  string    `json:"name"`
	Total int       `json:"total"`
	Root  *FileNode `json:"root"`
}

// Drive holds the categories accessed on one drive letter.
type Drive struct {
	Letter     string          `json:"letter"`
	Total      int             `json:"total"`
	Categories []*FileCategory `json:"categories"`

	index map[string]*FileCategory
}

// FileTree is the drive, category and path tree of local file accesses.
type FileTree struct {
	Drives []*Drive `json:"drives"`
	Files  int      `json:"files"`
}

// NewFileTree builds the tree from file-scheme records on Windows drive
// letters. Other paths are skipped. categories maps lower-case extensions
// to category names.
func NewFileTree(bundles []*model.Bundle, categories map[string]string) FileTree {
	drives := make(map[string]*Drive)
	files := make(map[string]bool)

	for _, b := range bundles {
		if !b.Valid() || b.URL == nil || b.URL.Scheme != "file" {
			continue
		}
		p := filePath(b.URL.Path)
		if !hasDriveLetter(p) {
			continue
		}

		letter := p[:1]
		d, ok := drives[letter]
		if !ok {
			d = &Drive{Letter: letter, index: make(map[string]*FileCategory)}
			drives[letter] = d
		}
		catName := category(p, categories)
		cat, ok := d.index[catName]
		if !ok {
			cat = &FileCategory{Name: catName, Root: &FileNode{}}
			d.index[catName] = cat
			d.Categories = append(d.Categories, cat)
		}

		node := cat.Root
		for _, part := range strings.Split(p, "/") {
			node = node.child(part)
		}
		node.Count++
		node.Accessed = append(node.Accessed, b.AccessTime())

		d.Total++
		cat.Total++
		files[p] = true
	}

	tree := FileTree{Files: len(files)}
	for _, d := range drives {
		sort.Slice(d.Categories, func(i, j int) bool { return d.Categories[i].Name < d.Categories[j].Name })
		for _, c := range d.Categories {
			c.Root.finish()
		}
		tree.Drives = append(tree.Drives, d)
	}
	sort.Slice(tree.Drives, func(i, j int) bool { return tree.Drives[i].Letter < tree.Drives[j].Letter })
	return tree
}

func filePath(raw string) string {
	p := strings.TrimPrefix(raw, "/")
	if u, err := url.PathUnescape(p); err == nil {
		p = u
	}
	return strings.ReplaceAll(p, `\`, "/")
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func category(p string, categories map[string]string) string {
	ext := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(path.Ext(p), ".")))
	if c, ok := categories[ext]; ok && ext != "" {
		return c
	}
	return DefaultCategory
}
