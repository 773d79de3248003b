package commands

import (
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/recordgen/compiler/gen"
	"github.com/syssam/recordgen/compiler/load"
	sqldialect "github.com/syssam/recordgen/dialect/sql"
	"github.com/syssam/recordgen/internal/config"
	"github.com/syssam/recordgen/internal/logger"
	"github.com/syssam/recordgen/internal/watch"
)

// NewConvertMappingCmd returns the convert-mapping command. Flags are
// bound to v, so they override the config file and the environment.
func NewConvertMappingCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert-mapping <to-type> <dest-path>",
		Short: "Convert table metadata to entity mappings",
		Long: `Convert the metadata of every table to mapping information and write it
to dest-path.

to-type is one of: ` + strings.Join(gen.Formats, ", ") + `. The go type writes active
record entities with their field manifests and validator stubs; the other
types write one mapping document per entity.

Metadata is reflected from a live database with --from-database, or read
from --schema-file. Given both, the schema file annotates the database.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return errors.Wrap(err, "bind flags")
			}
			file, _ := cmd.Flags().GetString("config")
			cfg, err := config.NewLoader(v).Load(file)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.Bool(config.KeyForce, false, "re-render entity files that already exist")
	f.Bool(config.KeyFromDatabase, false, "reflect the metadata from the database")
	f.String(config.KeyDialect, "", "database dialect or driver (postgres, pgx, mysql, sqlite3, sqlite)")
	f.String(config.KeyDSN, "", "data source name (default: $DATABASE_URL)")
	f.StringSlice(config.KeySchema, nil, "database schemas to reflect")
	f.String(config.KeySchemaFile, "", "schema file declaring or annotating the tables (.yaml, .toml, .json)")
	f.String(config.KeyNamespace, "", "import path of dest-path")
	f.String(config.KeyPackage, "", "package name of the generated files (default: last element of --namespace)")
	f.String(config.KeyExtend, "", `base type embedded by entities, as "import/path.Type"`)
	f.StringSlice(config.KeyFilter, nil, "only convert tables whose name contains one of the filters")
	f.Bool(config.KeyWatch, false, "convert again whenever the schema file changes")
	f.String(config.KeyHeader, "", "header comment of generated entity files")
	return cmd
}

func runConvert(ctx context.Context, out io.Writer, cfg *config.Config, toType, dest string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogJSON); err != nil {
		return err
	}
	if _, err := gen.NewExporter(toType, nil); err != nil {
		return errors.WithHintf(err, "to-type is one of: %s", strings.Join(gen.Formats, ", "))
	}
	if cfg.File != "" {
		logger.Logger.Debugw("config file", "path", cfg.File)
	}
	run := func(ctx context.Context) error {
		return convert(ctx, out, cfg, toType, dest)
	}
	if !cfg.Watch {
		return run(ctx)
	}
	w, err := watch.New(cfg.SchemaFile, run, watch.WithLogger(logger.Desugar()))
	if err != nil {
		return err
	}
	pterm.Info.WithWriter(out).Printfln("Watching %s for changes", cfg.SchemaFile)
	return w.Run(ctx)
}

// convert runs one conversion: reflect, derive the graph, export.
func convert(ctx context.Context, out io.Writer, cfg *config.Config, toType, dest string) error {
	r, closeFn, err := reflector(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	tables, err := r.Reflect(ctx)
	if err != nil {
		return err
	}

	declared, err := load.ScanDeclared(afero.NewOsFs(), dest)
	if err != nil {
		return err
	}
	opts := []gen.Option{
		gen.WithTarget(dest),
		gen.WithPackageName(cfg.Package),
		gen.WithExtend(cfg.Extend),
		gen.WithHeader(cfg.Header),
		gen.WithForce(cfg.Force),
		gen.WithFilters(cfg.Filters...),
		gen.WithDeclared(declared),
		gen.WithLogger(logger.Desugar()),
	}
	if cfg.Namespace != "" {
		opts = append(opts, gen.WithPackage(cfg.Namespace))
	}
	if cfg.Extend != "" && toType == gen.FormatGo {
		members, err := load.ScanAncestor(ctx, "", cfg.Extend)
		if err != nil {
			return errors.WithHint(err, "--extend must name a type of a package importable from the working directory")
		}
		opts = append(opts, gen.WithAncestor(members...))
	}
	c, err := gen.NewConfig(opts...)
	if err != nil {
		return err
	}
	g, err := gen.NewGraph(c, tables)
	if err != nil {
		return err
	}

	text := pterm.DefaultBasicText.WithWriter(out)
	if len(g.Nodes) == 0 {
		text.Println("No Metadata Classes to process.")
		return nil
	}
	for _, t := range g.Nodes {
		text.Printfln("Processing entity %q", t.Name)
	}
	exp, err := gen.NewExporter(toType, g)
	if err != nil {
		return err
	}
	text.Println()
	text.Printfln("Exporting %q mapping information to %q", toType, dest)
	written, err := exp.Export(ctx, g.Nodes)
	if err != nil {
		if gen.IsConfigError(err) && cfg.Namespace == "" {
			return errors.WithHint(err, "pass --namespace with the import path of "+dest)
		}
		return err
	}
	pterm.Success.WithWriter(out).Printfln("%d files written", len(written))
	return nil
}

// reflector returns the metadata source of cfg and a function releasing
// it.
func reflector(ctx context.Context, cfg *config.Config) (load.Reflector, func(), error) {
	if !cfg.FromDatabase {
		return &load.FileReflector{Path: cfg.SchemaFile}, func() {}, nil
	}
	drv, err := sqldialect.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = drv.Close() }
	if err := drv.Ping(ctx); err != nil {
		closeFn()
		return nil, nil, errors.WithHint(err, "check --dsn and that the server is reachable")
	}
	var r load.Reflector = &load.AtlasReflector{DB: drv.DB(), Dialect: drv.Dialect(), Schemas: cfg.Schemas}
	if cfg.SchemaFile != "" {
		s, err := load.ReadSchema(afero.NewOsFs(), cfg.SchemaFile)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		r = load.Annotated(r, s)
	}
	return r, closeFn, nil
}
