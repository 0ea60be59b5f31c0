package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"formsync/pkg/config"
	"formsync/pkg/formsync"

	log "github.com/sirupsen/logrus"
)

type fieldFlags formsync.Submission

func (f fieldFlags) String() string {
	pairs := make([]string, 0, len(f))
	for k, v := range f {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (f fieldFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", s)
	}
	f[name] = value
	return nil
}

func main() {
	fields := fieldFlags{}
	verbose := flag.Bool("v", false, "Verbose logging")
	configPath := flag.String("config", "forms.toml", "Form configuration file")
	formID := flag.String("form", "", "Form ID to write to (required)")
	initConfig := flag.Bool("init", false, "Write an example config file and exit")
	flag.Var(fields, "field", "Submission field as name=value (repeatable)")

	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	if *initConfig {
		f := &config.File{Filename: *configPath, Config: config.Example()}
		if err := f.Save(); err != nil {
			log.Fatalf("Failed to write %s: %v", *configPath, err)
		}
		fmt.Printf("Wrote example config to %s\n", *configPath)
		return
	}

	if *formID == "" {
		log.Error("You must specify a form ID with -form")
		flag.Usage()
		os.Exit(1)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warnf("Ignoring .env: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	form, ok := cfg.Config.Form(*formID)
	if !ok {
		log.Fatalf("Unknown form %q", *formID)
	}
	opts, err := cfg.Config.SheetOptions()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	session := formsync.NewSession(form.SheetConfig(), formsync.GoogleConnector(opts))
	if err := session.Authorize(ctx); err != nil {
		log.Fatalf("Failed to authorize: %v", err)
	}

	res := session.Write(ctx, formsync.Submission(fields))
	if !res.Success {
		log.Fatalf("Failed to write submission: %v", res.Err)
	}
	fmt.Printf("Appended row to %s (%d fields matched)\n", form.SheetName, res.Row.Matched)
	if res.SubmissionID != "" {
		fmt.Printf("Submission ID: %s\n", res.SubmissionID)
	}
}
