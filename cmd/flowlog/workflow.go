package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/flowlog/pkg/cli"
	"mercator-hq/flowlog/pkg/workflows"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow <name>",
	Short: "Print a workflow definition from the catalog",
	Long: `Print the source of a workflow definition. The name may be given with or
without the workflow extension ("unreliable-exome" or "unreliable-exome.nf").

With workflows.git enabled the repository is synced before the lookup.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workflow definitions in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowList,
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowListCmd)
}

func openCatalog(cmd *cobra.Command) (*workflows.Service, *app, error) {
	a, err := newApp(cmd.ErrOrStderr(), nil)
	if err != nil {
		return nil, nil, err
	}
	svc, err := workflows.Open(cmd.Context(), &a.cfg.Workflows, a.tel.Logger)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	return svc, a, nil
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	svc, a, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	def, ok := svc.Lookup(args[0])
	if !ok {
		return cli.NewCommandError("workflow", errors.New(svc.Describe(args[0])))
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), def.Source)
	return err
}

func runWorkflowList(cmd *cobra.Command, args []string) error {
	svc, a, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	for _, name := range svc.Names() {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return err
		}
	}
	return nil
}
