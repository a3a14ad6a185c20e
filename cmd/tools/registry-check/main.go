// registry-check inspects the activity registry the workers validate job
// input against.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"compatibility-workers/internal/common/validation"
	"compatibility-workers/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "", "Registry file (defaults to the embedded registry)")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listPath := listCmd.String("path", "", "Registry file (defaults to the embedded registry)")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportOut := exportCmd.String("out", "configs/activity-registry.json", "Destination file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		err = validate(*validatePath)
	case "list":
		_ = listCmd.Parse(os.Args[2:])
		err = list(*listPath)
	case "export":
		_ = exportCmd.Parse(os.Args[2:])
		err = export(*exportOut)
	default:
		help()
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func load(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

func validate(path string) error {
	reg, err := load(path)
	if err != nil {
		return err
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	if _, err := validation.NewValidator(reg); err != nil {
		return err
	}
	fmt.Printf("Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func list(path string) error {
	reg, err := load(path)
	if err != nil {
		return err
	}

	activities := append([]registry.Activity(nil), reg.Activities...)
	sort.Slice(activities, func(i, j int) bool { return activities[i].TaskType < activities[j].TaskType })

	fmt.Printf("%-22s %-8s %-8s %s\n", "TASK TYPE", "TIMEOUT", "RETRIES", "ERROR CODES")
	for _, a := range activities {
		fmt.Printf("%-22s %-8s %-8d %v\n", a.TaskType, a.Timeout, a.Retries, a.ErrorCodes)
	}
	return nil
}

// export writes the embedded registry out so a deployment can edit and load
// its own copy.
func export(out string) error {
	reg, err := registry.Default()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	fmt.Printf("Wrote %d activities to %s\n", len(reg.Activities), out)
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-check <command> [flags]

Commands:
  validate  Check required fields, timeouts and that every input schema compiles
  list      Print task types with their timeout, retries and error codes
  export    Write the embedded registry to a file
  help      Show this help message

Examples:
  registry-check validate
  registry-check validate -path configs/activity-registry.json
  registry-check export -out configs/activity-registry.json`)
}
