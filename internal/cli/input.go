package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/food-health-score-server/internal/domain"
)

// ProductFile is a product loaded from disk.
type ProductFile struct {
	Path    string
	Index   int
	Product domain.Product
}

// expandPaths resolves glob patterns such as "products/**/*.json". Plain paths
// are kept as given so a missing file is reported by the loader.
func expandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			if !seen[pattern] {
				seen[pattern] = true
				paths = append(paths, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	return paths, nil
}

// loadProducts reads every product from the given files. A file holds one
// product or a list of products, as JSON or YAML.
func loadProducts(paths []string) ([]ProductFile, error) {
	var products []ProductFile
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		list, err := decodeProducts(path, data)
		if err != nil {
			return nil, err
		}
		for i, p := range list {
			products = append(products, ProductFile{Path: path, Index: i, Product: p})
		}
	}
	return products, nil
}

func decodeProducts(path string, data []byte) ([]domain.Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: empty product file", path)
	}

	var list []domain.Product
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			if err := node.Decode(&list); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		} else {
			var p domain.Product
			if err := node.Decode(&p); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			list = []domain.Product{p}
		}
	default:
		if trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		} else {
			var p domain.Product
			if err := json.Unmarshal(trimmed, &p); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
			list = []domain.Product{p}
		}
	}
	return list, nil
}
