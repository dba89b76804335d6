package architecture_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "tabfocus/"

// sourceImports maps every non-test Go file under dir (relative to internal/)
// to its tabfocus-internal and third-party imports.
func sourceImports(t *testing.T, dir string) map[string][]string {
	t.Helper()
	fset := token.NewFileSet()
	out := map[string][]string{}
	err := filepath.WalkDir(filepath.Join("..", dir), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		node, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			return parseErr
		}
		imports := []string{}
		for _, imp := range node.Imports {
			imports = append(imports, strings.Trim(imp.Path.Value, `"`))
		}
		out[filepath.ToSlash(path)] = imports
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return out
}

func TestHexagonalLayerImports(t *testing.T) {
	t.Parallel()
	for path, imports := range sourceImports(t, "modules") {
		module := moduleName(path)
		layer := detectLayer(path)
		if module == "" || layer == "" {
			continue
		}
		for _, importPath := range imports {
			if !strings.HasPrefix(importPath, modulePath+"internal/modules/") {
				continue
			}
			if violatesLayerRule(module, layer, importPath) {
				t.Errorf("forbidden import in %s (%s): %s", path, layer, importPath)
			}
		}
	}
}

// Domain code is plain Go: the standard library plus the shared error and
// clock packages.
func TestDomainHasNoInfrastructureImports(t *testing.T) {
	t.Parallel()
	allowed := map[string]bool{
		modulePath + "internal/platform/errors": true,
		modulePath + "internal/platform/clock":  true,
	}
	for path, imports := range sourceImports(t, "modules") {
		if detectLayer(path) != "domain" {
			continue
		}
		for _, importPath := range imports {
			if isStdlib(importPath) || allowed[importPath] {
				continue
			}
			if strings.HasPrefix(importPath, modulePath+"internal/modules/"+moduleName(path)+"/domain") {
				continue
			}
			t.Errorf("domain file %s imports %s", path, importPath)
		}
	}
}

func TestPlatformDoesNotDependOnFeatures(t *testing.T) {
	t.Parallel()
	for path, imports := range sourceImports(t, "platform") {
		for _, importPath := range imports {
			for _, banned := range []string{"internal/modules/", "internal/ui", "internal/bootstrap"} {
				if strings.HasPrefix(importPath, modulePath+banned) {
					t.Errorf("platform file %s imports %s", path, importPath)
				}
			}
		}
	}
}

// The TUI only sees DTOs; it reaches the engine through interfaces it declares.
func TestUIOnlySeesDTOs(t *testing.T) {
	t.Parallel()
	for path, imports := range sourceImports(t, "ui") {
		for _, importPath := range imports {
			if !strings.HasPrefix(importPath, modulePath+"internal/modules/") {
				continue
			}
			if !isDTO(importPath) {
				t.Errorf("ui file %s imports %s", path, importPath)
			}
		}
	}
}

func moduleName(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		if parts[i] == "modules" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

func detectLayer(path string) string {
	for _, layer := range []string{"adapter/in", "adapter/out", "usecase", "service", "domain", "port/in", "port/out", "dto"} {
		if strings.Contains(path, "/"+layer+"/") {
			return layer
		}
	}
	return ""
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".") && first != strings.TrimSuffix(modulePath, "/")
}

func isPortIn(path string) bool {
	return strings.Contains(path, "/port/in/") || strings.HasSuffix(path, "/port/in")
}

func isDTO(path string) bool {
	return strings.Contains(path, "/dto/") || strings.HasSuffix(path, "/dto")
}

func violatesLayerRule(module, layer, importPath string) bool {
	sameModule := strings.Contains(importPath, "/internal/modules/"+module+"/")
	if !sameModule {
		if strings.Contains(importPath, "/service") || strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase") {
			return true
		}
		if isPortIn(importPath) || isDTO(importPath) {
			return false
		}
	}

	switch layer {
	case "adapter/in":
		return !isPortIn(importPath) && !isDTO(importPath)
	case "usecase":
		return strings.Contains(importPath, "/adapter/")
	case "service":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase")
	case "domain", "dto", "port/in", "port/out":
		return strings.Contains(importPath, "/adapter/") || strings.Contains(importPath, "/usecase") || strings.Contains(importPath, "/service")
	default:
		return false
	}
}

func TestViolatesLayerRule(t *testing.T) {
	cases := []struct {
		layer, importPath string
		want              bool
	}{
		{"adapter/in", "tabfocus/internal/modules/focus/port/in", false},
		{"adapter/in", "tabfocus/internal/modules/focus/dto", false},
		{"adapter/in", "tabfocus/internal/modules/focus/usecase", true},
		{"adapter/in", "tabfocus/internal/modules/focus/domain", true},
		{"usecase", "tabfocus/internal/modules/focus/service", false},
		{"usecase", "tabfocus/internal/modules/focus/adapter/out", true},
		{"service", "tabfocus/internal/modules/focus/usecase", true},
		{"port/out", "tabfocus/internal/modules/focus/domain", false},
		{"usecase", "tabfocus/internal/modules/other/service", true},
	}
	for _, tc := range cases {
		assertEqual := tc.want == violatesLayerRule("focus", tc.layer, tc.importPath)
		if !assertEqual {
			t.Errorf("violatesLayerRule(%s, %s) = %t", tc.layer, tc.importPath, !tc.want)
		}
	}
}
