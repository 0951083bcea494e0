package port

// FileWalker finds candidate documents. Collect accepts a mix of files and
// directories.
type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
	Collect(paths []string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Extractor turns a document on disk into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}
