package main

import (
	"github.com/spf13/cobra"

	"github.com/olusolaa/cloud-housekeeper/internal/core/service"
)

var failOnError bool

func taskCommands() []*cobra.Command {
	descriptions := []struct {
		name  string
		short string
	}{
		{service.TaskGroups, "Rewrite every bound monitoring dashboard with the current inventory"},
		{service.TaskSnapshots, "Snapshot every volume and delete snapshots past retention"},
		{service.TaskTags, "Propagate server tags and projects to volumes and addresses"},
		{service.TaskNames, "Rename servers, volumes and addresses to the naming convention"},
	}

	cmds := make([]*cobra.Command, 0, len(descriptions))
	for _, d := range descriptions {
		task := d.name
		cmd := &cobra.Command{
			Use:   task,
			Short: d.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := bootstrap(cmd.Context())
				if err != nil {
					return err
				}
				report, err := a.RunTask(cmd.Context(), task, a.Invocation)
				if err != nil {
					return err
				}
				if failed := report.Failures(); failOnError && len(failed) > 0 {
					return failed[0].Err
				}
				return nil
			},
		}
		cmd.Flags().BoolVar(&failOnError, "fail-on-error", false, "Exit non-zero when any mutation failed")
		cmds = append(cmds, cmd)
	}
	return cmds
}
