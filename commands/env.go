// Package commands implements the qms CLI verbs. Each command is a thin
// orchestration over the project, registry, metadata, audit, auth,
// workflow, and task layers: authenticate, authorize, ask the engine for
// the transition, mutate files, write metadata, append audit events,
// then touch tasks.
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/qms/audit"
	"github.com/c360studio/qms/auth"
	"github.com/c360studio/qms/meta"
	"github.com/c360studio/qms/project"
	"github.com/c360studio/qms/tasks"
)

// Command-layer refusals.
var (
	ErrDocumentExists         = errors.New("document already exists")
	ErrDocumentNotFound       = errors.New("document not found")
	ErrCheckedOut             = errors.New("document is checked out")
	ErrNotCheckedOut          = errors.New("document is not checked out")
	ErrVersionTooHigh         = errors.New("version 1.0 or later cannot be cancelled, only retired")
	ErrCommentRequired        = errors.New("a comment is required")
	ErrInvalidAssignee        = errors.New("unknown assignee")
	ErrApprovalGateClosed     = errors.New("approval gate closed")
	ErrExistingInfrastructure = errors.New("existing QMS infrastructure detected")
)

// Env bundles the per-invocation dependencies every verb needs.
type Env struct {
	Project *project.Project
	User    string
	Group   auth.Group
	Meta    *meta.Store
	Audit   *audit.Log
	Tasks   *tasks.Generator
}

// openEnv discovers the project, resolves the caller's identity, and
// wires the stores. Every verb except init goes through here.
func openEnv(cmd *cobra.Command) (*Env, error) {
	user, err := cmd.Root().PersistentFlags().GetString("user")
	if err != nil {
		return nil, err
	}

	p, err := project.Open()
	if err != nil {
		return nil, err
	}

	group, err := auth.ResolveGroup(p, user)
	if err != nil {
		return nil, err
	}

	gen, err := tasks.NewGenerator(p)
	if err != nil {
		return nil, err
	}

	return &Env{
		Project: p,
		User:    user,
		Group:   group,
		Meta:    meta.NewStore(p),
		Audit:   audit.NewLog(p),
		Tasks:   gen,
	}, nil
}

// requireCommand checks the caller's group against the permission table.
func (e *Env) requireCommand(command string) error {
	return auth.CheckCommand(e.User, e.Group, command)
}

// loadMeta loads metadata, translating a missing record into the
// document-not-found refusal.
func (e *Env) loadMeta(docID string) (*meta.Meta, error) {
	m, err := e.Meta.Load(docID)
	if err != nil {
		if errors.Is(err, meta.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, docID)
		}
		return nil, err
	}
	return m, nil
}

// validateAssignees checks every assignee resolves to a known user.
func (e *Env) validateAssignees(assignees []string) error {
	for _, a := range assignees {
		if !auth.KnownUser(e.Project, a) {
			return fmt.Errorf("%w: %s", ErrInvalidAssignee, a)
		}
	}
	return nil
}

// AddCommands registers every verb on the root command.
func AddCommands(root *cobra.Command) {
	root.AddCommand(
		newInitCommand(),
		newCreateCommand(),
		newReadCommand(),
		newCheckoutCommand(),
		newCheckinCommand(),
		newRouteCommand(),
		newAssignCommand(),
		newReviewCommand(),
		newApproveCommand(),
		newRejectCommand(),
		newReleaseCommand(),
		newRevertCommand(),
		newCloseCommand(),
		newCancelCommand(),
		newFixCommand(),
		newStatusCommand(),
		newInboxCommand(),
		newWorkspaceCommand(),
		newHistoryCommand(),
		newCommentsCommand(),
		newNamespaceCommand(),
		newUserCommand(),
		newMigrateCommand(),
		newVerifyMigrationCommand(),
	)
}
