package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newNamespaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "namespace",
		Short: "Manage SDLC namespaces",
	}
	cmd.AddCommand(newNamespaceAddCommand(), newNamespaceListCommand())
	return cmd
}

func newNamespaceAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Register a new SDLC namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("namespace"); err != nil {
				return err
			}

			name := strings.ToUpper(args[0])
			if err := env.Project.Registry.AddNamespace(name); err != nil {
				return err
			}
			if err := env.Project.Registry.Save(env.Project.NamespacesPath()); err != nil {
				return err
			}
			dir := filepath.Join(env.Project.QMSRoot(), "SDLC-"+name)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create namespace directory: %w", err)
			}

			fmt.Printf("Registered namespace %s (directory SDLC-%s)\n", name, name)
			fmt.Printf("  New document types: %s-RS, %s-RTM\n", name, name)
			return nil
		},
	}
}

func newNamespaceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered SDLC namespaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("namespace"); err != nil {
				return err
			}

			namespaces := env.Project.Registry.Namespaces()
			fmt.Println("SDLC namespaces:")
			for _, name := range env.Project.Registry.NamespaceNames() {
				fmt.Printf("  %-8s -> %s\n", name, namespaces[name].Path)
			}
			return nil
		},
	}
}
