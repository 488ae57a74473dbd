// Package generator is the entry point of contract generation. It composes
// the domain model walker, the protected region context and a target-syntax
// emitter into generated files.
package generator

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/contractgen/cml"
	"github.com/teranos/contractgen/contract"
	"github.com/teranos/contractgen/errors"
	"github.com/teranos/contractgen/logger"
	"github.com/teranos/contractgen/mdsl"
	"github.com/teranos/contractgen/region"
)

// Emitter serializes a contract model in one target syntax.
type Emitter interface {
	// Language names the target syntax (e.g., "MDSL")
	Language() string

	// FileExtension returns the extension of generated files, without the dot
	FileExtension() string

	// Emit renders the contract, merging the protected regions of rc
	Emit(cm *contract.ContractModel, rc *region.Context) (*region.Emission, error)
}

// Options configure a generation run.
type Options struct {
	// Context is the bounded context to generate.
	Context string

	// Contract carries API version, endpoint location and default protocol.
	Contract contract.Options

	// Emitter defaults to MDSL.
	Emitter Emitter

	// FileExtension overrides the emitter's extension.
	FileExtension string

	// Logger defaults to the global logger.
	Logger *zap.SugaredLogger
}

func (o Options) emitter() Emitter {
	if o.Emitter == nil {
		return mdsl.NewGenerator()
	}
	return o.Emitter
}

func (o Options) log() *zap.SugaredLogger {
	if o.Logger == nil {
		return logger.Logger
	}
	return o.Logger
}

// FileName is the name of the generated file of a bounded context.
func (o Options) FileName(context string) string {
	ext := o.FileExtension
	if ext == "" {
		ext = o.emitter().FileExtension()
	}
	return context + "." + ext
}

// GeneratedFile is the result of one generation.
type GeneratedFile struct {
	FileName string
	Content  string

	// Preserved lists user-edited declarations kept from protected regions
	// instead of being regenerated.
	Preserved []string

	// Warnings report malformed protected regions of the previous file.
	Warnings []region.Warning
}

// Generate produces the contract file of opts.Context. existing is the
// previous content of the output file, or nil when there is none.
func Generate(model *cml.Model, opts Options, existing *string) (*GeneratedFile, error) {
	if model == nil {
		return nil, errors.NewInvalidRequestError("no domain model given")
	}
	log := opts.log()
	start := time.Now()

	cm, err := contract.NewWalker(model, opts.Contract).WalkContext(opts.Context)
	if err != nil {
		return nil, err
	}
	log.Debugw("walked domain model",
		logger.FieldBoundedContext, opts.Context,
		"data_types", len(cm.DataTypes),
		"endpoints", len(cm.Endpoints),
		"flows", len(cm.Flows))

	rc := region.Build(existing)
	fileName := opts.FileName(opts.Context)
	for _, w := range rc.Warnings() {
		log.Warnw("malformed protected region ignored",
			logger.FieldFile, fileName,
			logger.FieldRegion, w.Kind.Label(),
			logger.FieldLine, w.Line,
			logger.FieldReason, w.Message)
	}

	out, err := opts.emitter().Emit(cm, rc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to emit %s for %s", opts.emitter().Language(), opts.Context)
	}

	file := &GeneratedFile{
		FileName: fileName,
		Content:  out.Content,
		Warnings: rc.Warnings(),
	}
	for _, p := range out.Preserved {
		if !p.Edited {
			continue
		}
		file.Preserved = append(file.Preserved, p.Name)
		log.Debugw("kept user declaration",
			logger.FieldFile, fileName,
			logger.FieldRegion, p.Kind.Label(),
			logger.FieldDeclaration, p.Name,
			logger.FieldLine, p.Line)
	}

	log.Infow("generated contract",
		logger.FieldBoundedContext, opts.Context,
		logger.FieldFile, fileName,
		logger.FieldCount, len(file.Preserved),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return file, nil
}

// Contexts returns the bounded contexts to generate: the requested names, or
// every context with something to expose.
func Contexts(model *cml.Model, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	var names []string
	for _, id := range model.ExposingContexts() {
		names = append(names, model.Context(id).Name)
	}
	return names
}

// ReadExisting returns the content of a previously generated file, or nil if
// the file does not exist.
func ReadExisting(path string) (*string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	text := string(data)
	return &text, nil
}

// GenerateDir regenerates the given contexts against the files in dir and
// returns the results without writing them.
func GenerateDir(model *cml.Model, opts Options, dir string, contexts []string) ([]*GeneratedFile, error) {
	names := Contexts(model, contexts)
	if len(names) == 0 {
		return nil, errors.WithHint(
			errors.NewInvalidModelError("context map %q has no bounded context exposing anything", model.Name),
			"expose an aggregate in an upstream relationship or add application services")
	}
	files := make([]*GeneratedFile, 0, len(names))
	for _, name := range names {
		ctxOpts := opts
		ctxOpts.Context = name
		existing, err := ReadExisting(filepath.Join(dir, ctxOpts.FileName(name)))
		if err != nil {
			return nil, err
		}
		file, err := Generate(model, ctxOpts, existing)
		if err != nil {
			return nil, errors.Wrapf(err, "bounded context %s", name)
		}
		files = append(files, file)
	}
	return files, nil
}

// Write stores a generated file in dir, creating dir if needed.
func Write(dir string, file *GeneratedFile) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create output directory %s", dir)
	}
	path := filepath.Join(dir, file.FileName)
	if err := os.WriteFile(path, []byte(file.Content), 0o644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}
	return path, nil
}
