package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rockets-cn/Cura-1/internal/registry"
	"github.com/rockets-cn/Cura-1/internal/resources"
	"github.com/rockets-cn/Cura-1/internal/types"
	"github.com/rockets-cn/Cura-1/internal/variants"
)

// resourcesEnv overrides an unset --resources flag.
const resourcesEnv = "VARIANTCTL_RESOURCES"

// session is everything a subcommand needs: the loaded registry and the built index.
type session struct {
	logger   *zap.Logger
	registry *registry.Registry
	index    *variants.Index
}

// newLogger builds the CLI logger. Logs go to stderr so they never mix with output.
func newLogger(debug bool) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.OutputPaths = []string{"stderr"}
	logConfig.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return logConfig.Build()
}

// resolveResourcesDir returns the flag value, the environment override, or ".".
func resolveResourcesDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(resourcesEnv); env != "" {
		return env
	}
	return "."
}

// openSession loads the resource tree and builds the variant index.
func openSession(ctx context.Context, dir string, logger *zap.Logger) (*session, error) {
	reg := registry.New()
	if _, err := resources.NewLoader(logger).LoadDir(dir, reg); err != nil {
		return nil, fmt.Errorf("failed to load resources from %s: %w", dir, err)
	}

	idx := variants.New(reg, reg, variants.WithLogger(logger))
	if err := idx.Initialize(ctx); err != nil {
		var dupErr *variants.DuplicateVariantError
		if errors.As(err, &dupErr) {
			return nil, fmt.Errorf("invalid variant configuration: %w", err)
		}
		return nil, fmt.Errorf("failed to build variant index: %w", err)
	}

	return &session{logger: logger, registry: reg, index: idx}, nil
}

// withSession runs fn against a freshly built session using the global flags.
func withSession(ctx context.Context, fn func(s *session) error) error {
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	s, err := openSession(ctx, resolveResourcesDir(resourcesDir), logger)
	if err != nil {
		return err
	}
	return fn(s)
}

// parseTypeFlag converts a --type value. Empty means every type.
func parseTypeFlag(value string) (types.VariantType, error) {
	if value == "" {
		return types.AnyVariantType, nil
	}
	return types.ParseVariantType(value)
}

// definitionFor returns the machine definition, or a bare machine when the tree
// has variants for a definition id that has no definition file.
func (s *session) definitionFor(id string) (types.Machine, *registry.Definition) {
	if def, ok := s.registry.Definition(id); ok {
		return def, def
	}
	return bareMachine(id), nil
}

type bareMachine string

func (m bareMachine) DefinitionID() string { return string(m) }
