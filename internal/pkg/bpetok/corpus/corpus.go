package corpus

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Load reads training documents, one per file. A path may name a file, a
// directory (walked recursively in lexical order, so the document order is
// stable across runs) or "-" for stdin.
func Load(paths []string) ([]string, error) {
	var docs []string
	for _, path := range paths {
		if path == "-" {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return nil, fmt.Errorf("corpus: failed to read stdin: %w", err)
			}
			docs = append(docs, string(data))
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("corpus: failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			doc, err := readFile(path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("corpus: failed to walk %s: %w", path, err)
			}
			if d.IsDir() {
				return nil
			}
			doc, err := readFile(p)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return docs, nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("corpus: failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Normalize applies Unicode NFC normalization to every document. Training on
// normalized text keeps visually identical inputs from splitting merge
// statistics across equivalent byte sequences.
func Normalize(docs []string) []string {
	out := make([]string, len(docs))
	for i, doc := range docs {
		out[i] = norm.NFC.String(doc)
	}
	return out
}
