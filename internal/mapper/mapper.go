package mapper

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"spring2node/internal/analyzer"
)

// NodePackage is one npm dependency with the reason it was chosen.
type NodePackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type mapping struct {
	pkg        string
	version    string
	desc       string
	additional []string
}

// Static table keyed by group:artifact. Entries with an empty pkg mean the
// capability is built into Node and needs no package.
var coordinateTable = map[string]mapping{
	"org.springframework.boot:spring-boot-starter-web": {
		pkg: "express", version: "^4.18.0", desc: "Web framework for REST APIs",
	},
	"org.springframework.boot:spring-boot-starter-data-jpa": {
		pkg: "sequelize", version: "^6.32.0", desc: "ORM for database access",
	},
	"org.springframework.boot:spring-boot-starter-security": {
		pkg: "passport", version: "^0.6.0", desc: "Authentication and authorization",
		additional: []string{"passport-jwt", "jsonwebtoken"},
	},
	"org.springframework.boot:spring-boot-starter-validation": {
		pkg: "express-validator", version: "^7.0.0", desc: "Request validation",
	},
	"mysql:mysql-connector-java": {
		pkg: "mysql2", version: "^3.6.0", desc: "MySQL database driver",
	},
	"org.postgresql:postgresql": {
		pkg: "pg", version: "^8.11.0", desc: "PostgreSQL database driver",
	},
	"com.h2database:h2": {
		pkg: "better-sqlite3", version: "^9.0.0", desc: "In-memory database (SQLite as alternative)",
	},
	"com.fasterxml.jackson.core:jackson-databind": {
		desc: "Built into Node.js (JSON.parse/stringify)",
	},
	"ch.qos.logback:logback-classic": {
		pkg: "winston", version: "^3.11.0", desc: "Logging framework",
	},
	"org.slf4j:slf4j-api": {
		pkg: "winston", version: "^3.11.0", desc: "Logging framework",
	},
	"org.springframework.boot:spring-boot-starter-test": {
		pkg: "jest", version: "^29.7.0", desc: "Testing framework",
	},
	"junit:junit": {
		pkg: "jest", version: "^29.7.0", desc: "Testing framework",
	},
	"org.apache.commons:commons-lang3": {
		pkg: "lodash", version: "^4.17.21", desc: "Utility functions",
	},
	"com.google.guava:guava": {
		pkg: "lodash", version: "^4.17.21", desc: "Utility functions",
	},
	"org.springframework.boot:spring-boot-starter-webflux": {
		pkg: "axios", version: "^1.6.0", desc: "HTTP client",
	},
	"org.springframework:spring-webflux": {
		pkg: "axios", version: "^1.6.0", desc: "HTTP client",
	},
	"org.springframework.boot:spring-boot-configuration-processor": {
		pkg: "dotenv", version: "^16.3.0", desc: "Configuration management",
	},
	"org.springframework.boot:spring-boot-starter-cache": {
		pkg: "node-cache", version: "^5.1.2", desc: "In-memory caching",
	},
	"org.springframework:spring-context": {
		pkg: "node-cron", version: "^3.0.3", desc: "Scheduled tasks",
		additional: []string{"node-schedule"},
	},
}

// Artifact-only fallback when the group is unknown or missing.
var artifactTable = map[string]string{
	"spring-boot-starter-web":      "express",
	"spring-boot-starter-data-jpa": "sequelize",
	"spring-boot-starter-security": "passport",
	"mysql-connector-java":         "mysql2",
	"postgresql":                   "pg",
	"logback-classic":              "winston",
	"slf4j-api":                    "winston",
	"commons-lang3":                "lodash",
	"guava":                        "lodash",
	"webflux":                      "axios",
	"h2":                           "better-sqlite3",
}

// Every generated project gets these regardless of the source deps.
var essentialPackages = []NodePackage{
	{Name: "express", Version: "^4.18.0", Description: "Web framework"},
	{Name: "sequelize", Version: "^6.32.0", Description: "ORM"},
	{Name: "dotenv", Version: "^16.3.0", Description: "Environment configuration"},
	{Name: "cors", Version: "^2.8.5", Description: "CORS middleware"},
	{Name: "helmet", Version: "^7.1.0", Description: "Security headers"},
}

// Mapper translates Maven/Gradle coordinates into npm packages.
type Mapper struct {
	table map[string]mapping
	log   *zap.Logger
}

func New(logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	table := make(map[string]mapping, len(coordinateTable))
	for k, v := range coordinateTable {
		table[k] = v
	}
	return &Mapper{table: table, log: logger}
}

// AddCustom registers an extra mapping keyed by group:artifact.
func (m *Mapper) AddCustom(coordinate, pkg, version, desc string) {
	m.table[coordinate] = mapping{pkg: pkg, version: version, desc: desc}
}

// Map resolves each source dependency to npm packages. Resolution order:
// exact group:artifact, then artifact name, then substring match against the
// coordinate table. Unmapped dependencies are logged and skipped; the base
// runtime set is always included. Output order is deterministic.
func (m *Mapper) Map(deps []analyzer.Dependency) []NodePackage {
	seen := map[string]bool{}
	var out []NodePackage
	add := func(p NodePackage) {
		if p.Name == "" || seen[p.Name] {
			return
		}
		seen[p.Name] = true
		if p.Version == "" {
			p.Version = "latest"
		}
		out = append(out, p)
	}

	for _, d := range deps {
		coord := d.Group + ":" + d.Artifact
		hit, ok := m.table[coord]
		if !ok {
			if pkg, found := artifactTable[d.Artifact]; found {
				hit, ok = mapping{pkg: pkg}, true
			}
		}
		if !ok {
			hit, ok = m.substringMatch(d.Artifact)
		}
		if !ok {
			m.log.Warn("no npm equivalent", zap.String("coordinate", coord))
			continue
		}
		if hit.pkg == "" {
			continue // built in
		}
		add(NodePackage{Name: hit.pkg, Version: hit.version, Description: hit.desc})
		for _, extra := range hit.additional {
			add(NodePackage{Name: extra, Description: "Companion package for " + hit.pkg})
		}
	}

	for _, p := range essentialPackages {
		add(p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Mapper) substringMatch(artifact string) (mapping, bool) {
	if artifact == "" {
		return mapping{}, false
	}
	keys := make([]string, 0, len(m.table))
	for k := range m.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if containsToken(k, artifact) {
			return m.table[k], true
		}
	}
	return mapping{}, false
}

func containsToken(key, artifact string) bool {
	return len(artifact) >= 4 && strings.Contains(key, artifact)
}

// PackageJSONDeps flattens a mapped set into the package.json dependencies
// object shape.
func PackageJSONDeps(pkgs []NodePackage) map[string]string {
	deps := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		deps[p.Name] = p.Version
	}
	return deps
}

// DevDependencies is the standard dev tool set for a generated project.
func DevDependencies() map[string]string {
	return map[string]string{
		"jest":           "^29.7.0",
		"@types/node":    "^20.10.0",
		"@types/express": "^4.17.21",
		"@types/cors":    "^2.8.17",
		"ts-node":        "^10.9.1",
		"typescript":     "^5.3.0",
		"nodemon":        "^3.0.2",
	}
}
