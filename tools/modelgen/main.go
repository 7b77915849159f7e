package main

import (
	"flag"
	"log/slog"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// tables are the ones the save repositories map; the rest of the schema is
// not modelled.
var tables = map[string]string{
	"save_slots":    "SaveSlot",
	"domain_events": "DomainEvent",
}

func main() {
	var dsn, out string
	flag.StringVar(&dsn, "dsn", os.Getenv("VILLAGE_DB_DSN"), "postgres dsn")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "output dir for generated models")
	flag.Parse()

	if dsn == "" {
		slog.Error("missing --dsn or VILLAGE_DB_DSN")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		slog.Error("open postgres", "err", err)
		os.Exit(1)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext,
	})
	g.UseDB(db)
	for table, name := range tables {
		g.GenerateModelAs(table, name, gen.FieldType("payload", "[]byte"), gen.FieldType("state", "[]byte"))
	}
	g.Execute()

	slog.Info("generated gorm models", "out", out)
}
