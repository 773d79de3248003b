// Package gen derives entity mapping metadata from reflected tables and
// renders the entity artifacts.
//
// The pipeline is:
//
//	load.Reflector (database or schema file)
//	        ↓
//	[]*schema.Table
//	        ↓
//	NewGraph (types, fields, associations)
//	        ↓
//	Assembler (manifest, entity, validator per type)
//	        ↓
//	Writer (afero, goimports)
//
// Per type three files are produced: the field manifest in the manifest
// subpackage, the entity in the target package and a validator stub in
// the validators subpackage. Manifests and validators are written once
// and then belong to the user. Entities are re-rendered only with force.
//
// Members declared by hand in the target package are never generated: the
// declared set is scanned from the package sources and passed with
// WithDeclared.
//
// Typical use:
//
//	tables, err := (&load.AtlasReflector{DB: db, Dialect: dialect.Postgres}).Reflect(ctx)
//	if err != nil {
//		return err
//	}
//	cfg, err := gen.NewConfig(
//		gen.WithTarget("./entity"),
//		gen.WithPackage("example.com/app/entity"),
//	)
//	if err != nil {
//		return err
//	}
//	g, err := gen.NewGraph(cfg, tables)
//	if err != nil {
//		return err
//	}
//	res, err := gen.Generate(ctx, g)
package gen
