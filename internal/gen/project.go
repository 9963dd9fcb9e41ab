package gen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"spring2node/internal/analyzer"
	"spring2node/internal/convert"
	"spring2node/internal/mapper"
)

// Generator writes the converted project tree: package.json, server entry,
// converted artifacts, migrated config, and supporting files.
type Generator struct {
	Log *zap.Logger
}

func NewGenerator(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{Log: logger}
}

// Generate writes the whole project under outDir. Artifacts land at their
// declared relative paths; route artifacts are additionally mounted in
// server.js.
func (g *Generator) Generate(outDir, projectName string, artifacts []convert.Artifact, pkgs []mapper.NodePackage, cfg AppConfig) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	files := map[string]string{
		"package.json":       g.packageJSON(projectName, pkgs),
		"server.js":          g.serverJS(artifacts, cfg),
		".env":               cfg.EnvFile(),
		".gitignore":         gitignore,
		"README.md":          g.readme(projectName, artifacts),
		"config/database.js": cfg.DatabaseJS(),
	}
	for _, a := range artifacts {
		if a.Path != "" {
			files[a.Path] = a.Code
		}
	}

	for rel, body := range files {
		path := filepath.Join(outDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
	}
	g.Log.Info("generated project", zap.String("dir", outDir), zap.Int("files", len(files)))
	return nil
}

func (g *Generator) packageJSON(name string, pkgs []mapper.NodePackage) string {
	manifest := map[string]any{
		"name":        strings.ToLower(name),
		"version":     "1.0.0",
		"description": "Converted from a Spring Boot application",
		"main":        "server.js",
		"scripts": map[string]string{
			"start": "node server.js",
			"dev":   "nodemon server.js",
			"test":  "jest",
		},
		"dependencies":    mapper.PackageJSONDeps(pkgs),
		"devDependencies": mapper.DevDependencies(),
	}
	b, _ := json.MarshalIndent(manifest, "", "  ")
	return string(b) + "\n"
}

func (g *Generator) serverJS(artifacts []convert.Artifact, cfg AppConfig) string {
	var routes []convert.Artifact
	for _, a := range artifacts {
		if a.Kind == analyzer.CategoryController && a.Path != "" {
			routes = append(routes, a)
		}
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i].Name < routes[j].Name })

	var b strings.Builder
	b.WriteString(`require('dotenv').config();
const express = require('express');
const cors = require('cors');
const helmet = require('helmet');
const sequelize = require('./config/database');

const app = express();
app.use(helmet());
app.use(cors());
app.use(express.json());

`)
	for _, r := range routes {
		mod := strings.TrimSuffix(filepath.Base(r.Path), ".js")
		fmt.Fprintf(&b, "app.use('/api/%s', require('./routes/%s'));\n", basePath(r.Name), mod)
	}
	b.WriteString(`
app.get('/health', (req, res) => res.json({ status: 'ok' }));

const port = process.env.PORT || ` + fmt.Sprint(cfg.Server.Port) + `;

sequelize.authenticate()
  .then(() => {
    app.listen(port, () => console.log('Server listening on port ' + port));
  })
  .catch((err) => {
    console.error('Database connection failed:', err.message);
    process.exit(1);
  });
`)
	return b.String()
}

// UserController -> users
func basePath(controllerName string) string {
	base := strings.TrimSuffix(controllerName, "Controller")
	if base == "" {
		base = controllerName
	}
	base = strings.ToLower(base)
	if !strings.HasSuffix(base, "s") {
		base += "s"
	}
	return base
}

func (g *Generator) readme(name string, artifacts []convert.Artifact) string {
	counts := map[convert.Status]int{}
	for _, a := range artifacts {
		counts[a.Status]++
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nGenerated Node.js project converted from a Spring Boot application.\n\n", name)
	fmt.Fprintf(&b, "Artifacts: %d converted, %d stubbed, %d failed.\n\n", counts[convert.StatusConverted], counts[convert.StatusStubbed], counts[convert.StatusFailed])
	b.WriteString("## Run\n\n```\nnpm install\nnpm start\n```\n")
	return b.String()
}

const gitignore = `node_modules/
.env
*.log
dist/
`
