package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/yaml"

	"github.com/rockets-cn/Cura-1/internal/types"
)

// Subdirectories of a resource tree and the container type their files default to.
const (
	DefinitionsDir = "definitions"
	VariantsDir    = "variants"
)

// Document is the on-disk form of a container.
type Document struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Values   map[string]interface{} `json:"values,omitempty"`
}

// Registrar receives decoded containers. *registry.Registry satisfies it.
type Registrar interface {
	Register(c *types.Container) error
}

// Loader reads a resource tree into a Registrar.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a Loader. A nil logger disables logging.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadDir loads every definition and variant file under root.
// Missing subdirectories are skipped. All per-file errors are collected and
// returned as one aggregate; files that decoded cleanly are still registered.
func (l *Loader) LoadDir(root string, reg Registrar) (int, error) {
	var errs []error
	loaded := 0
	for _, sub := range []struct {
		dir           string
		containerType string
	}{
		{DefinitionsDir, types.ContainerTypeMachine},
		{VariantsDir, types.ContainerTypeVariant},
	} {
		files, err := listYAML(filepath.Join(root, sub.dir))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, path := range files {
			c, err := l.LoadFile(path, sub.containerType)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := reg.Register(c); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, err))
				continue
			}
			loaded++
		}
	}

	l.logger.Info("Loaded resources",
		zap.String("root", root),
		zap.Int("containers", loaded),
		zap.Int("errors", len(errs)),
	)
	return loaded, utilerrors.NewAggregate(errs)
}

// LoadFile decodes one YAML document into a container.
// defaultType is used when the document's metadata carries no "type".
func (l *Loader) LoadFile(path, defaultType string) (*types.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := Decode(data, defaultType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.logger.Debug("Loaded container", zap.String("id", c.ID), zap.String("path", path))
	return c, nil
}

// Decode parses a YAML document into a container.
// The document id and name are copied into the metadata; "type" defaults to defaultType.
func Decode(data []byte, defaultType string) (*types.Container, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("document has no id")
	}

	md := make(types.Metadata, len(doc.Metadata)+3)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	md[types.MetaID] = doc.ID
	if doc.Name != "" {
		md[types.MetaName] = doc.Name
	} else if _, ok := md[types.MetaName]; !ok {
		md[types.MetaName] = doc.ID
	}
	if _, ok := md[types.MetaType]; !ok && defaultType != "" {
		md[types.MetaType] = defaultType
	}

	return &types.Container{
		ID:       doc.ID,
		Metadata: md,
		Values:   doc.Values,
	}, nil
}

// listYAML returns the .yaml/.yml files in dir in lexical order.
// A missing directory yields no files and no error.
func listYAML(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
