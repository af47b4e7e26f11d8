package cmd

import (
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/deletion"
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	o := config.NewOptions()
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete remote resources by id, tag, date or status",
		Example: `
bigmler delete --ids model/5143a51a37203f2cf7000972,dataset/5143a51a37203f2cf7000973
bigmler delete --from-dir my_dir --dry-run
bigmler delete --all-tag test --older-than 10 --yes
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := prepare(cmd, "delete", o)
			if err != nil {
				return err
			}
			defer r.end()

			return deletion.New(r.client, r.session, o).Run(cmd.Context())
		},
	}

	fs := deleteCmd.Flags()
	addConnectionFlags(fs, o)
	addSessionFlags(fs, o)
	fs.StringVar(&o.DeleteList, "ids", "", "comma separated ids to delete")
	fs.StringVar(&o.DeleteFile, "from-file", "", "file of ids to delete")
	fs.StringVar(&o.FromDir, "from-dir", "", "delete the ids logged in this output directory")
	fs.StringVar(&o.AllTag, "all-tag", "", "delete the resources of any type with this tag")
	fs.StringVar(&o.SourceTag, "source-tag", "", "delete the sources with this tag")
	fs.StringVar(&o.DatasetTag, "dataset-tag", "", "delete the datasets with this tag")
	fs.StringVar(&o.ModelTag, "model-tag", "", "delete the models with this tag")
	fs.StringVar(&o.EnsembleTag, "ensemble-tag", "", "delete the ensembles with this tag")
	fs.StringVar(&o.EvaluationTag, "evaluation-tag", "", "delete the evaluations with this tag")
	fs.StringVar(&o.BatchPredictionTag, "batch-prediction-tag", "", "delete the batch predictions with this tag")
	fs.StringVar(&o.ClusterTag, "cluster-tag", "", "delete the clusters with this tag")
	fs.StringVar(&o.ResourceTypes, "resource-types", "", "comma separated types of the resources to delete")
	fs.StringVar(&o.OlderThan, "older-than", "", "days, YYYY-MM-DD date or resource id the resources must be older than")
	fs.StringVar(&o.NewerThan, "newer-than", "", "days, YYYY-MM-DD date or resource id the resources must be newer than")
	fs.StringVar(&o.Status, "status", "", "status of the resources to delete")
	fs.BoolVar(&o.DryRun, "dry-run", false, "list the resources without deleting them")
	fs.IntVar(&o.MaxParallelDeletes, "max-parallel-deletes", 1, "deletions requested at a time")
	return deleteCmd
}
