package main

import (
	"log"

	"github.com/spf13/pflag"

	"github.com/HarshalVankudre/CourseViewer/internal/catalog"
	"github.com/HarshalVankudre/CourseViewer/internal/infrastructure/logging"
)

// manifest scans a course directory tree and writes the data.json
// manifest the viewer loads at startup
func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)

	root := pflag.String("root", ".", "course root directory containing numbered chapter folders")
	baseURL := pflag.String("base_url", "", "URL prefix for generated asset links (required)")
	output := pflag.String("output", "data.json", "manifest output path, relative to the course root")
	level := pflag.String("logging.level", "info", "logging level")
	pflag.Parse()

	if *baseURL == "" {
		log.Fatal("base_url is required")
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level: *level,
		AppID: "courseviewer-manifest",
		Env:   "development",
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	defer logger.Sync()

	generator := catalog.NewManifestGenerator(*baseURL, logger)
	if err := generator.WriteManifest(*root, *output); err != nil {
		log.Fatalf("Failed to write manifest: %s\n", err)
	}
}
