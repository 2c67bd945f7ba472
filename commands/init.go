package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/project"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a QMS project in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := cmd.Root().PersistentFlags().GetString("user")
			if err != nil {
				return err
			}
			// No agent files exist yet, so only the built-in
			// administrators can initialize.
			if !auth.HardcodedAdmins[user] {
				return fmt.Errorf("%w: init requires a built-in administrator", auth.ErrPermissionDenied)
			}

			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}

			p := project.At(cwd)

			// Refuse to layer a new project over an existing one. All
			// markers are checked before anything is created.
			for _, marker := range []string{
				filepath.Join(cwd, project.ConfigFile),
				filepath.Join(cwd, project.QMSDir),
				p.UsersRoot(),
				p.AgentPath("qa"),
			} {
				if _, err := os.Stat(marker); err == nil {
					return fmt.Errorf("%w: %s", ErrExistingInfrastructure, marker)
				}
			}

			dirs := []string{
				filepath.Join(p.QMSRoot(), "SOP"),
				filepath.Join(p.QMSRoot(), "CR"),
				filepath.Join(p.QMSRoot(), "INV"),
				filepath.Join(p.QMSRoot(), "TEMPLATE"),
				filepath.Join(p.QMSRoot(), "SDLC-FLOW"),
				filepath.Join(p.QMSRoot(), "SDLC-QMS"),
				filepath.Join(p.QMSRoot(), project.MetaDir),
				filepath.Join(p.QMSRoot(), project.AuditDir),
				filepath.Join(p.QMSRoot(), project.ArchiveDir),
				p.AgentsRoot(),
			}
			for admin := range auth.HardcodedAdmins {
				dirs = append(dirs, p.InboxPath(admin), p.WorkspaceDirPath(admin))
			}
			for _, dir := range dirs {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}

			// Seed the default quality agent so routing has an assignee
			// from the first document onward.
			if err := provisionUser(p, "qa", auth.GroupQuality, "Default quality assurance agent"); err != nil {
				return err
			}

			if err := p.WriteConfig(project.NewConfig()); err != nil {
				return err
			}
			if err := p.Registry.Save(p.NamespacesPath()); err != nil {
				return err
			}

			fmt.Printf("Initialized QMS project at %s\n", cwd)
			fmt.Printf("  Config: %s\n", p.ConfigPath())
			return nil
		},
	}
}
