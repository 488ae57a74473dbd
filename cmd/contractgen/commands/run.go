package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/contractgen/cml"
	"github.com/teranos/contractgen/config"
	"github.com/teranos/contractgen/errors"
	"github.com/teranos/contractgen/generator"
	"github.com/teranos/contractgen/logger"
)

// modelFlags are shared by generate, check and watch
type modelFlags struct {
	model      string
	contexts   []string
	output     string
	apiVersion string
}

func (f *modelFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "Domain model file (.yaml, .yml or .toml)")
	cmd.Flags().StringSliceVarP(&f.contexts, "context", "c", nil, "Bounded contexts to generate (default: every exposing context)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory (default: generator.output_dir)")
	cmd.Flags().StringVar(&f.apiVersion, "api-version", "", "API version written to the contract header")
	_ = cmd.MarkFlagRequired("model")
}

// run is one CLI invocation against a model file
type run struct {
	id       string
	ctx      context.Context
	log      *zap.SugaredLogger
	cfg      config.Config
	model    *cml.Model
	opts     generator.Options
	dir      string
	contexts []string
}

// prepare loads configuration, applies flag overrides and loads the model.
func (f *modelFlags) prepare(cmd *cobra.Command, component string) (*run, error) {
	loaded, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	cfg := *loaded
	if f.output != "" {
		cfg.Generator.OutputDir = f.output
	}
	if len(f.contexts) > 0 {
		cfg.Generator.Contexts = f.contexts
	}
	if f.apiVersion != "" {
		cfg.Generator.APIVersion = f.apiVersion
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	id := uuid.NewString()
	ctx := logger.WithComponent(logger.WithRunID(cmd.Context(), id), component)
	log := logger.LoggerFromContext(ctx)

	r := &run{
		id:       id,
		ctx:      ctx,
		log:      log,
		cfg:      cfg,
		dir:      cfg.Generator.OutputDir,
		contexts: cfg.Generator.Contexts,
		opts: generator.Options{
			Contract:      cfg.ContractOptions(),
			FileExtension: cfg.Generator.FileExtension,
			Logger:        log,
		},
	}
	if err := r.loadModel(f.model); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *run) loadModel(path string) error {
	model, err := cml.LoadFile(path)
	if err != nil {
		return err
	}
	r.model = model
	r.log.Infow("loaded domain model",
		logger.FieldFile, path,
		logger.FieldContextMap, model.Name,
		logger.FieldCount, len(model.Contexts()))
	return nil
}

// generate regenerates and writes every selected context
func (r *run) generate() ([]string, []*generator.GeneratedFile, error) {
	files, err := generator.GenerateDir(r.model, r.opts, r.dir, r.contexts)
	if err != nil {
		return nil, nil, err
	}
	paths := make([]string, 0, len(files))
	for _, file := range files {
		path, err := generator.Write(r.dir, file)
		if err != nil {
			return nil, nil, err
		}
		paths = append(paths, path)
	}
	return paths, files, nil
}
