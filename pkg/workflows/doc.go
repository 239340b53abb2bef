// Package workflows serves pipeline workflow definitions by name.
//
// Definitions come from a directory of workflow files (one file per
// workflow, the name being the file name without its extension) and from
// explicitly configured name -> path entries. The directory may be a local
// path or a sub-path of a Git checkout kept current by a cron schedule.
//
// A Catalog is an immutable snapshot. Store swaps snapshots atomically, so a
// failed reload never leaves callers with a partial catalog:
//
//	svc, err := workflows.Open(ctx, &cfg.Workflows, logger)
//	if err != nil {
//		return err
//	}
//	go svc.Run(ctx) // git sync and file watching
//
//	text := svc.Describe("exome.nf")
//
// Unknown names yield the text "Workflow definition for <name> not found."
// rather than an error, so callers can return it verbatim.
package workflows
