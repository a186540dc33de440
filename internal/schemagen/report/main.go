package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/macropower/dictamen/api/v1beta1/reports"
	"github.com/macropower/dictamen/pkg/schema"
)

var (
	outFile = flag.String("o", "schema.json", "Output file for the generated schema")
	root    = flag.String("root", ".", "Module root, used to read doc comments")
)

func main() {
	flag.Parse()

	out, err := filepath.Abs(*outFile)
	if err != nil {
		log.Fatalf("resolve output path: %v", err)
	}

	err = os.Chdir(*root)
	if err != nil {
		log.Fatalf("change to module root: %v", err)
	}

	gen := schema.NewGenerator(reports.New(),
		schema.WithGoComments("github.com/macropower/dictamen",
			"./api/v1beta1",
			"./api/v1beta1/reports",
			"./pkg/derive",
			"./pkg/expr",
			"./pkg/plural",
			"./pkg/rule",
		),
	)

	jsData, err := gen.Generate()
	if err != nil {
		log.Fatalf("generate JSON schema: %v", err)
	}

	err = os.WriteFile(out, jsData, 0o600)
	if err != nil {
		log.Fatalf("write schema file: %v", err)
	}
}
