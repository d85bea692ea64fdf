package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/hashicorp/go-multierror"

	"github.com/roach88/sigflow/internal/ir"
)

// LoadMode controls how errors are handled during graph loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeCompile     = "E010" // Declaration does not compile
)

// LoadResult contains the results of loading a graph directory.
type LoadResult struct {
	Spec      *ir.GraphSpec
	CUEValue  cue.Value
	FileCount int
}

// LoadError represents an error that occurred during graph loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadGraph loads every CUE file in dir as one package and compiles it.
//
// In LoadModeFailFast the first error is returned. In LoadModeCollectAll
// every entity and section is compiled and the returned error is a
// *multierror.Error holding each failure; the result then holds whatever
// compiled. Directory and CUE build failures always end loading early.
func LoadGraph(dir string, mode LoadMode) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("graph directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing graph directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}
	if mode == LoadModeFailFast {
		spec, err := CompileGraph(value)
		if err != nil {
			return result, convertCompileError(err)
		}
		if spec.Name == "" {
			spec.Name = filepath.Base(filepath.Clean(dir))
		}
		result.Spec = spec
		return result, nil
	}

	spec, err := compileCollectAll(value)
	if spec.Name == "" {
		spec.Name = filepath.Base(filepath.Clean(dir))
	}
	result.Spec = spec
	return result, err
}

// compileCollectAll compiles each entity and section on its own so one bad
// declaration does not hide the others.
func compileCollectAll(v cue.Value) (*ir.GraphSpec, error) {
	var errs *multierror.Error
	spec := &ir.GraphSpec{}

	name, err := optionalString(v, FieldName)
	if err != nil {
		errs = multierror.Append(errs, convertCompileError(err))
	}
	spec.Name = name

	entVal := v.LookupPath(cue.ParsePath(FieldEntity))
	if entVal.Exists() {
		iter, err := entVal.Fields()
		if err != nil {
			errs = multierror.Append(errs, convertCompileError(err))
		} else {
			for iter.Next() {
				ent, err := CompileEntity(iter.Selector().Unquoted(), iter.Value())
				if err != nil {
					errs = multierror.Append(errs, convertCompileError(err))
					continue
				}
				spec.Entities = append(spec.Entities, ent)
			}
		}
	}

	if spec.Plugs, err = CompilePlugs(v.LookupPath(cue.ParsePath(FieldPlug))); err != nil {
		errs = multierror.Append(errs, convertCompileError(err))
	}
	if spec.Sets, err = CompileSets(v.LookupPath(cue.ParsePath(FieldSet))); err != nil {
		errs = multierror.Append(errs, convertCompileError(err))
	}
	if spec.Watch, err = CompileWatch(v.LookupPath(cue.ParsePath(FieldWatch))); err != nil {
		errs = multierror.Append(errs, convertCompileError(err))
	}

	return spec, errs.ErrorOrNil()
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeCompile,
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}
