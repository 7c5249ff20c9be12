// cmd/tools/template-registry/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"tya-notifications/internal/common/config"
	"tya-notifications/internal/common/database"
	"tya-notifications/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)

	validatePath := validateCmd.String("path", "configs/templates.yaml", "Path to template registry")
	listPath := listCmd.String("path", "configs/templates.yaml", "Path to template registry")
	syncPath := syncCmd.String("path", "configs/templates.yaml", "Path to template registry")
	syncConfig := syncCmd.String("config", "", "Config file (defaults to configs/config.yaml)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg := mustLoad(*validatePath)
		if problems := reg.Validate(); len(problems) > 0 {
			fmt.Println("Registry validation failed:")
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "list":
		listCmd.Parse(os.Args[2:])
		reg := mustLoad(*listPath)
		keys := reg.Keys()
		for _, k := range reg.SortedKeys() {
			fmt.Printf("%-70s %s\n", k, keys[k])
		}

	case "sync":
		syncCmd.Parse(os.Args[2:])
		reg := mustLoad(*syncPath)
		if err := syncTemplates(*syncConfig, reg); err != nil {
			fmt.Printf("Error syncing templates: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Synced %d template keys.\n", len(reg.Keys()))

	case "help":
		fallthrough
	default:
		help()
	}
}

func mustLoad(path string) *registry.TemplateRegistry {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		fmt.Printf("Error loading registry %s: %v\n", path, err)
		os.Exit(1)
	}
	return reg
}

// syncTemplates copies the registry keys into the Postgres template store.
func syncTemplates(configPath string, reg *registry.TemplateRegistry) error {
	if problems := reg.Validate(); len(problems) > 0 {
		return fmt.Errorf("registry has %d problems, run validate", len(problems))
	}

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.EnsureTemplateSchema(ctx); err != nil {
		return err
	}
	return pg.UpsertTemplates(ctx, reg.Keys())
}

func help() {
	fmt.Println("Usage: template-registry <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  validate  Check the registry for empty ids and missing SMS bodies")
	fmt.Println("  list      Print every template key and id")
	fmt.Println("  sync      Write the registry into the Postgres template store")
	fmt.Println("  help      Show this message")
}
