package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/project"
)

func newUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage QMS users",
	}
	cmd.AddCommand(newUserAddCommand(), newUserListCommand())
	return cmd
}

func newUserAddCommand() *cobra.Command {
	var (
		group       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a new user with an agent file, inbox, and workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("user"); err != nil {
				return err
			}

			name := strings.ToLower(args[0])
			g := auth.Group(group)
			if !g.Valid() {
				return fmt.Errorf("%w: %q", auth.ErrInvalidAgentGroup, group)
			}
			if auth.KnownUser(env.Project, name) {
				return fmt.Errorf("user %s already exists", name)
			}
			if err := provisionUser(env.Project, name, g, description); err != nil {
				return err
			}

			fmt.Printf("Added user %s (%s)\n", name, g)
			fmt.Printf("  Agent file: %s\n", env.Project.AgentPath(name))
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Permission group (administrator, initiator, quality, reviewer)")
	cmd.Flags().StringVar(&description, "description", "", "Agent description")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

// provisionUser writes the agent file and creates the inbox and
// workspace directories for a user.
func provisionUser(p *project.Project, name string, g auth.Group, description string) error {
	if description == "" {
		description = fmt.Sprintf("QMS %s agent", g)
	}

	body := fmt.Sprintf("# %s\n\n%s\n\nGroup: %s\n", name, description, g)
	content := fmt.Sprintf("---\nname: %s\ngroup: %s\ndescription: %s\n---\n\n%s",
		name, g, description, body)
	if err := os.MkdirAll(p.AgentsRoot(), 0755); err != nil {
		return fmt.Errorf("create agents directory: %w", err)
	}
	if err := os.WriteFile(p.AgentPath(name), []byte(content), 0644); err != nil {
		return fmt.Errorf("write agent file: %w", err)
	}

	for _, dir := range []string{p.InboxPath(name), p.WorkspaceDirPath(name)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create user directory: %w", err)
		}
	}
	return nil
}

func newUserListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users and their groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if err := env.requireCommand("user"); err != nil {
				return err
			}

			type row struct {
				name  string
				group auth.Group
			}
			var rows []row
			for admin := range auth.HardcodedAdmins {
				rows = append(rows, row{admin, auth.GroupAdministrator})
			}

			entries, err := os.ReadDir(env.Project.AgentsRoot())
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("list agents: %w", err)
			}
			for _, entry := range entries {
				name := strings.TrimSuffix(entry.Name(), ".md")
				if entry.IsDir() || name == entry.Name() {
					continue
				}
				g, err := auth.AgentGroup(env.Project, name)
				if err != nil {
					fmt.Printf("  (skipping %s: %v)\n", name, err)
					continue
				}
				rows = append(rows, row{name, g})
			}

			sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
			fmt.Println("Users:")
			for _, r := range rows {
				fmt.Printf("  %-16s %s\n", r.name, r.group)
			}
			return nil
		},
	}
}
