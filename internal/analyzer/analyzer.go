package analyzer

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Category is the role a source file plays in the application.
type Category string

const (
	CategoryController Category = "controller"
	CategoryService    Category = "service"
	CategoryRepository Category = "repository"
	CategoryEntity     Category = "entity"
	CategoryConfig     Category = "config"
	CategoryOther      Category = "other"
)

// Categories in conversion order: entities first so later stages can refer
// to generated models.
var Categories = []Category{
	CategoryEntity,
	CategoryRepository,
	CategoryService,
	CategoryController,
	CategoryConfig,
	CategoryOther,
}

// SourceFile is one discovered source unit.
type SourceFile struct {
	Path      string
	RelPath   string
	Package   string
	ClassName string
	Category  Category
}

// Dependency is one build-file coordinate.
type Dependency struct {
	Group    string
	Artifact string
	Version  string
}

// classification patterns, checked most specific first: a repository
// interface also matches the service patterns through its name.
var (
	repositoryPatterns = compileAll(
		`@Repository`,
		`interface\s+\w+Repository`,
		`extends\s+\w*Repository`,
		`extends\s+JpaRepository`,
		`extends\s+CrudRepository`,
	)
	entityPatterns = compileAll(
		`@Entity`,
		`@Table`,
		`class\s+\w+\s+implements\s+Serializable`,
	)
	controllerPatterns = compileAll(
		`@RestController`,
		`@Controller`,
		`class\s+\w+Controller`,
		`extends.*Controller`,
	)
	servicePatterns = compileAll(
		`@Service`,
		`class\s+\w+Service`,
		`implements\s+\w+Service`,
	)
	configPatterns = compileAll(
		`@Configuration`,
		`@SpringBootApplication`,
		`class\s+\w+Config`,
	)

	rePackageDecl = regexp.MustCompile(`(?m)^package\s+([\w.]+);`)
	reClassName   = regexp.MustCompile(`(?:public\s+)?(?:final\s+)?(?:abstract\s+)?class\s+(\w+)`)
	reIfaceName   = regexp.MustCompile(`(?:public\s+)?interface\s+(\w+)`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// sampleSize bounds how much of each file is read for classification; the
// full text lives in the consolidated codebase.
const sampleSize = 10 * 1024

// Discover walks root for Java sources, classifies each by annotation and
// naming patterns, and extracts package and class name. Test sources and
// VCS/build directories are skipped.
func Discover(root string, logger *zap.Logger) ([]SourceFile, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var files []SourceFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "target", "build", "node_modules", ".gradle", ".idea":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if strings.Contains(strings.ToLower(rel), "test") {
			return nil
		}

		sample, err := readSample(path)
		if err != nil {
			logger.Warn("unreadable source file", zap.String("path", path), zap.Error(err))
			return nil
		}
		files = append(files, SourceFile{
			Path:      path,
			RelPath:   rel,
			Package:   extractPackage(sample),
			ClassName: extractClassName(sample),
			Category:  Classify(sample),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("discovered source files", zap.Int("count", len(files)))
	return files, nil
}

func readSample(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, sampleSize)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// Classify assigns a category from content patterns, most specific first.
func Classify(content string) Category {
	for _, group := range []struct {
		patterns []*regexp.Regexp
		cat      Category
	}{
		{repositoryPatterns, CategoryRepository},
		{entityPatterns, CategoryEntity},
		{controllerPatterns, CategoryController},
		{servicePatterns, CategoryService},
		{configPatterns, CategoryConfig},
	} {
		for _, re := range group.patterns {
			if re.MatchString(content) {
				return group.cat
			}
		}
	}
	return CategoryOther
}

func extractPackage(content string) string {
	if m := rePackageDecl.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

func extractClassName(content string) string {
	if m := reClassName.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	if m := reIfaceName.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

// ByCategory groups files preserving discovery order inside each group.
func ByCategory(files []SourceFile) map[Category][]SourceFile {
	out := make(map[Category][]SourceFile)
	for _, f := range files {
		out[f.Category] = append(out[f.Category], f)
	}
	return out
}

// --- build system ---

type BuildSystem string

const (
	BuildMaven   BuildSystem = "maven"
	BuildGradle  BuildSystem = "gradle"
	BuildAnt     BuildSystem = "ant"
	BuildUnknown BuildSystem = "unknown"
)

// DetectBuildSystem inspects root for well-known build files.
func DetectBuildSystem(root string) BuildSystem {
	if fileExists(filepath.Join(root, "pom.xml")) {
		return BuildMaven
	}
	for _, name := range []string{"build.gradle", "build.gradle.kts", "settings.gradle"} {
		if fileExists(filepath.Join(root, name)) {
			return BuildGradle
		}
	}
	if fileExists(filepath.Join(root, "build.xml")) {
		return BuildAnt
	}
	return BuildUnknown
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ParseDependencies reads coordinates from the detected build file. An
// unknown build system yields an empty list, not an error; the mapper falls
// back to its base package set.
func ParseDependencies(root string, logger *zap.Logger) []Dependency {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch DetectBuildSystem(root) {
	case BuildMaven:
		return parseMaven(filepath.Join(root, "pom.xml"), logger)
	case BuildGradle:
		return parseGradle(filepath.Join(root, "build.gradle"), logger)
	default:
		logger.Warn("unknown build system, no dependencies parsed", zap.String("root", root))
		return nil
	}
}

type pomProject struct {
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	DepMgmt      struct {
		Dependencies []pomDependency `xml:"dependencies>dependency"`
	} `xml:"dependencyManagement"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

func parseMaven(path string, logger *zap.Logger) []Dependency {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("pom.xml unreadable", zap.Error(err))
		return nil
	}
	var proj pomProject
	if err := xml.Unmarshal(b, &proj); err != nil {
		logger.Warn("pom.xml unparseable", zap.Error(err))
		return nil
	}
	var deps []Dependency
	for _, d := range append(proj.Dependencies, proj.DepMgmt.Dependencies...) {
		if d.GroupID == "" || d.ArtifactID == "" {
			continue
		}
		version := d.Version
		if version == "" {
			version = "unknown"
		}
		deps = append(deps, Dependency{Group: d.GroupID, Artifact: d.ArtifactID, Version: version})
	}
	logger.Info("parsed maven dependencies", zap.Int("count", len(deps)))
	return deps
}

var reGradleDep = regexp.MustCompile(`(?:implementation|compile|api)\s+['"]([^:'"]+):([^:'"]+):([^'"]+)['"]`)

func parseGradle(path string, logger *zap.Logger) []Dependency {
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("build.gradle unreadable", zap.Error(err))
		return nil
	}
	var deps []Dependency
	for _, m := range reGradleDep.FindAllStringSubmatch(string(b), -1) {
		deps = append(deps, Dependency{Group: m[1], Artifact: m[2], Version: m[3]})
	}
	logger.Info("parsed gradle dependencies", zap.Int("count", len(deps)))
	return deps
}
