package dataset

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dushixiang/magicbutton/pkg/nostd"
)

// Catalog 策略根目录，每个子目录是一次运行
type Catalog struct {
	Root    string
	Exclude []string
}

func NewCatalog(root string, exclude []string) *Catalog {
	return &Catalog{Root: root, Exclude: exclude}
}

// List 列出可选的运行，去掉排除目录与隐藏目录，按名称排序
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.Root)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	excluded := make(map[string]struct{}, len(c.Exclude))
	for _, name := range c.Exclude {
		excluded[name] = struct{}{}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := excluded[entry.Name()]; ok {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Path 返回运行目录，拒绝越出根目录的名称
func (c *Catalog) Path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
	}
	for _, ex := range c.Exclude {
		if ex == name {
			return "", fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
		}
	}
	dir, err := nostd.SafePathJoin(c.Root, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStrategyNotFound, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %q", ErrStrategyNotFound, name)
	}
	return dir, nil
}

// Load 按名称加载一次运行
func (c *Catalog) Load(name string) (*Run, error) {
	dir, err := c.Path(name)
	if err != nil {
		return nil, err
	}
	run, err := Load(dir)
	if err != nil {
		return nil, err
	}
	run.Name = name
	return run, nil
}
