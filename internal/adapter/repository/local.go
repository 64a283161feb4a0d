// Package repository provides filesystem access to locally built Move
// packages, for auditing a package before it is published on chain.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/movesec/auditor/internal/domain"
)

// LocalPackageSource implements the audit PackageSource port over a
// directory layout produced by a local disassembly step:
//
//	<root>/modules/<name>.disasm   one file of disassembled text per module
//	<root>/functions.json          the normalized public function list
//
// The package ID passed to FetchPackage is recorded on the result but does
// not affect which files are read.
type LocalPackageSource struct {
	root string
}

// NewLocalPackageSource creates a source rooted at the given directory.
func NewLocalPackageSource(root string) *LocalPackageSource {
	return &LocalPackageSource{root: root}
}

// FetchPackage loads the disassembled modules and function list from disk.
func (s *LocalPackageSource) FetchPackage(ctx context.Context, packageID string) (domain.ContractPackage, error) {
	moduleCode, err := s.readModules()
	if err != nil {
		return domain.ContractPackage{}, err
	}
	if len(moduleCode) == 0 {
		return domain.ContractPackage{}, fmt.Errorf("no modules found under %s", filepath.Join(s.root, "modules"))
	}

	functions, err := s.readFunctions()
	if err != nil {
		return domain.ContractPackage{}, err
	}

	return domain.ContractPackage{
		PackageID:  packageID,
		ModuleCode: moduleCode,
		Functions:  functions,
	}, nil
}

func (s *LocalPackageSource) readModules() (map[string]string, error) {
	dir := filepath.Join(s.root, "modules")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read modules dir: %w", err)
	}

	moduleCode := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read module %s: %w", name, err)
		}
		moduleName := strings.TrimSuffix(name, filepath.Ext(name))
		moduleCode[moduleName] = string(data)
	}
	return moduleCode, nil
}

func (s *LocalPackageSource) readFunctions() ([]domain.PublicFunction, error) {
	path := filepath.Join(s.root, "functions.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Signature-level rules are skipped; text rules still apply.
			return nil, nil
		}
		return nil, fmt.Errorf("read functions.json: %w", err)
	}

	var functions []domain.PublicFunction
	if err := json.Unmarshal(data, &functions); err != nil {
		return nil, fmt.Errorf("parse functions.json: %w", err)
	}
	return functions, nil
}
