package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ltikhonov/primordia/internal/decompose"
	"github.com/ltikhonov/primordia/internal/domainspec"
	"github.com/ltikhonov/primordia/internal/model"
)

var defineFiles []string

// domainsCmd represents the domains command
var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List and inspect registered domains",
	Long: `Domains lists the decomposition domains this build knows about: the
four core algorithms plus every configurable domain from the built-in
catalog and from --define files.

Example:
  primordia domains
  primordia domains list --define my-domains.yaml
  primordia domains show scientific`,
	RunE: runDomainsList,
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered domains",
	RunE:  runDomainsList,
}

var domainsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one domain's definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runDomainsShow,
}

func init() {
	rootCmd.AddCommand(domainsCmd)
	domainsCmd.AddCommand(domainsListCmd)
	domainsCmd.AddCommand(domainsShowCmd)

	domainsCmd.PersistentFlags().StringSliceVar(&defineFiles, "define", nil, "custom domain definition files (YAML, repeatable)")
}

// newDomainManager builds a manager with the core algorithms, the
// builtin catalog and any --define files registered.
func newDomainManager() (*decompose.Manager, error) {
	manager := decompose.NewManager(nil, nil, 0)
	if err := manager.Initialize(); err != nil {
		return nil, err
	}
	for _, file := range defineFiles {
		configs, err := domainspec.Load(file)
		if err != nil {
			return nil, err
		}
		for _, cfg := range configs {
			if err := manager.RegisterDomain(cfg); err != nil {
				return nil, err
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d domains from %s\n", len(configs), file)
		}
	}
	return manager, nil
}

func runDomainsList(cmd *cobra.Command, args []string) error {
	manager, err := newDomainManager()
	if err != nil {
		return err
	}

	catalog := manager.Catalog()
	for _, domain := range manager.Registry().Domains() {
		if cfg, ok := catalog.Lookup(domain); ok {
			name := cfg.DisplayName
			if name == "" {
				name = string(domain)
			}
			fmt.Printf("%-18s %s (%d fields)\n", domain, name, len(cfg.Extractors))
			continue
		}
		fmt.Printf("%-18s core algorithm\n", domain)
	}
	return nil
}

func runDomainsShow(cmd *cobra.Command, args []string) error {
	manager, err := newDomainManager()
	if err != nil {
		return err
	}

	domain := model.Domain(args[0])
	if _, err := manager.Registry().Lookup(domain); err != nil {
		return err
	}

	cfg, ok := manager.Catalog().Lookup(domain)
	if !ok {
		fmt.Printf("%s: core algorithm (method %s)\n", domain, model.MethodTag(domain))
		return nil
	}

	// Rebuild the declarative shape; extractor functions are opaque.
	type field struct {
		Name   string  `yaml:"name"`
		Weight float64 `yaml:"weight"`
	}
	view := struct {
		Name        string  `yaml:"name"`
		DisplayName string  `yaml:"displayName,omitempty"`
		Method      string  `yaml:"method"`
		Validated   bool    `yaml:"validated"`
		Fields      []field `yaml:"fields"`
	}{
		Name:        string(cfg.Domain),
		DisplayName: cfg.DisplayName,
		Method:      model.MethodTag(cfg.Domain),
		Validated:   cfg.Validate != nil,
	}
	for _, ex := range cfg.Extractors {
		view.Fields = append(view.Fields, field{Name: ex.Name, Weight: ex.Weight})
	}

	data, err := yaml.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal domain: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
