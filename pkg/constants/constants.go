package constants

const (
	BigMLerEnvVarPrefix = "BIGMLER_"
	BigMLEnvVarPrefix   = "BIGML_"

	DefaultsFilename   = "bigmler.ini"
	SessionsLog        = "bigmler_sessions"
	CommandLog         = ".bigmler"
	DirsLog            = ".bigmler_dir_stack"
	NewDirsLog         = ".bigmler_dirs"
	DefaultPredictions = "predictions.csv"
	DefaultEvaluation  = "evaluation"
	DefaultDescription = "Created using BigMLer"

	// Output directories default to the launch time in this layout.
	OutputDirLayout = "MonJan0206_150405"
)
