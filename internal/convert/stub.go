package convert

import (
	"fmt"
	"strings"

	"spring2node/internal/analyzer"
	"spring2node/internal/extract"
)

// Stub emits a minimal compilable artifact for a module whose conversion
// failed, so the pipeline and the generated project keep a consistent shape.
// Each stub names what needs manual attention.
func Stub(framework, orm string, mod extract.Module) string {
	switch analyzer.Category(mod.Kind) {
	case analyzer.CategoryEntity:
		return modelStub(orm, mod)
	case analyzer.CategoryRepository:
		return repositoryStub(mod)
	case analyzer.CategoryService:
		return serviceStub(mod)
	case analyzer.CategoryController:
		return controllerStub(mod)
	default:
		return genericStub(mod)
	}
}

func stubBanner(mod extract.Module) string {
	return fmt.Sprintf(`/**
 * %s (stub)
 *
 * Automatic conversion failed for this module; implement it manually
 * from the original Java source.
 */
`, mod.Name)
}

func modelStub(orm string, mod extract.Module) string {
	if orm == ORMTypeORM {
		return stubBanner(mod) + fmt.Sprintf(`const { EntitySchema } = require('typeorm');

module.exports = new EntitySchema({
  name: '%s',
  columns: {
    id: { primary: true, type: 'bigint', generated: true },
  },
});
`, mod.Name)
	}
	return stubBanner(mod) + fmt.Sprintf(`const { DataTypes } = require('sequelize');

module.exports = (sequelize) => {
  const %s = sequelize.define('%s', {
    id: { type: DataTypes.BIGINT, primaryKey: true, autoIncrement: true },
  });
  return %s;
};
`, mod.Name, mod.Name, mod.Name)
}

func repositoryStub(mod extract.Module) string {
	var b strings.Builder
	b.WriteString(stubBanner(mod))
	fmt.Fprintf(&b, "class %s {\n", mod.Name)
	for _, m := range mod.Methods {
		fmt.Fprintf(&b, "  async %s() {\n    throw new Error('%s.%s not implemented');\n  }\n", m.Name, mod.Name, m.Name)
	}
	b.WriteString("}\n\nmodule.exports = " + mod.Name + ";\n")
	return b.String()
}

func serviceStub(mod extract.Module) string {
	var b strings.Builder
	b.WriteString(stubBanner(mod))
	fmt.Fprintf(&b, "class %s {\n", mod.Name)
	for _, m := range mod.Methods {
		fmt.Fprintf(&b, "  async %s() {\n    throw new Error('%s.%s not implemented');\n  }\n", m.Name, mod.Name, m.Name)
	}
	b.WriteString("}\n\nmodule.exports = new " + mod.Name + "();\n")
	return b.String()
}

func controllerStub(mod extract.Module) string {
	var b strings.Builder
	b.WriteString(stubBanner(mod))
	b.WriteString("const express = require('express');\nconst router = express.Router();\n\n")
	b.WriteString("router.use((req, res) => {\n  res.status(501).json({ error: '" + mod.Name + " not implemented' });\n});\n\n")
	b.WriteString("module.exports = router;\n")
	return b.String()
}

func genericStub(mod extract.Module) string {
	return stubBanner(mod) + "module.exports = {};\n"
}
