package mapper

import (
	"testing"

	"spring2node/internal/analyzer"
)

func names(pkgs []NodePackage) map[string]string {
	out := make(map[string]string, len(pkgs))
	for _, p := range pkgs {
		out[p.Name] = p.Version
	}
	return out
}

func TestMap_CoordinateAndArtifactMatch(t *testing.T) {
	m := New(nil)
	got := names(m.Map([]analyzer.Dependency{
		{Group: "org.springframework.boot", Artifact: "spring-boot-starter-data-jpa", Version: "3.2.0"},
		{Group: "com.example.fork", Artifact: "mysql-connector-java", Version: "8.0"},
	}))

	if got["sequelize"] != "^6.32.0" {
		t.Fatalf("sequelize = %q", got["sequelize"])
	}
	// Unknown group still resolves through the artifact table.
	if _, ok := got["mysql2"]; !ok {
		t.Fatalf("mysql2 missing: %v", got)
	}
}

func TestMap_SecurityBringsCompanions(t *testing.T) {
	m := New(nil)
	got := names(m.Map([]analyzer.Dependency{
		{Group: "org.springframework.boot", Artifact: "spring-boot-starter-security", Version: "3.2.0"},
	}))
	for _, want := range []string{"passport", "passport-jwt", "jsonwebtoken"} {
		if _, ok := got[want]; !ok {
			t.Fatalf("%s missing: %v", want, got)
		}
	}
}

func TestMap_BuiltInAndUnknownSkipped(t *testing.T) {
	m := New(nil)
	got := names(m.Map([]analyzer.Dependency{
		{Group: "com.fasterxml.jackson.core", Artifact: "jackson-databind", Version: "2.15.0"},
		{Group: "com.weird", Artifact: "zz", Version: "1.0"},
	}))
	if _, ok := got["jackson-databind"]; ok {
		t.Fatal("built-in capability must not map to a package")
	}
	if _, ok := got["zz"]; ok {
		t.Fatal("unmapped dependency leaked into output")
	}
}

func TestMap_EssentialsAlwaysPresent(t *testing.T) {
	m := New(nil)
	got := names(m.Map(nil))
	for _, want := range []string{"express", "sequelize", "dotenv", "cors", "helmet"} {
		if _, ok := got[want]; !ok {
			t.Fatalf("essential %s missing: %v", want, got)
		}
	}
}

func TestMap_Deterministic(t *testing.T) {
	m := New(nil)
	deps := []analyzer.Dependency{
		{Group: "org.postgresql", Artifact: "postgresql", Version: "42"},
		{Group: "junit", Artifact: "junit", Version: "4"},
	}
	a := m.Map(deps)
	b := m.Map(deps)
	if len(a) != len(b) {
		t.Fatalf("len %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("order differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestAddCustom(t *testing.T) {
	m := New(nil)
	m.AddCustom("com.acme:widget", "acme-widget", "^1.0.0", "internal widget library")
	got := names(m.Map([]analyzer.Dependency{{Group: "com.acme", Artifact: "widget", Version: "1"}}))
	if got["acme-widget"] != "^1.0.0" {
		t.Fatalf("custom mapping missing: %v", got)
	}
}

func TestPackageJSONShapes(t *testing.T) {
	deps := PackageJSONDeps([]NodePackage{{Name: "express", Version: "^4.18.0"}})
	if deps["express"] != "^4.18.0" {
		t.Fatalf("deps = %v", deps)
	}
	dev := DevDependencies()
	if dev["jest"] == "" || dev["typescript"] == "" {
		t.Fatalf("dev deps = %v", dev)
	}
}
