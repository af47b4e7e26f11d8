package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bigmler/bigmler/pkg/bigml"
	"github.com/bigmler/bigmler/pkg/config"
	"github.com/bigmler/bigmler/pkg/constants"
	"github.com/bigmler/bigmler/pkg/resources"
	"github.com/bigmler/bigmler/pkg/session"
	"github.com/bigmler/bigmler/pkg/util"
	"github.com/logrusorgru/aurora"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// runner holds what a command needs once its flags are settled: the output
// directory session and the API client.
type runner struct {
	options *config.Options
	session *session.Session
	client  *bigml.Client
	inputs  *resources.Inputs
	manager *resources.Manager
}

// prepare applies the user defaults or, with --resume, the flags of the
// stored command, logs the command and opens its session.
func prepare(cmd *cobra.Command, subcommand string, o *config.Options) (*runner, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	logs := session.NewLogs(workDir, subcommand)
	if o.ClearLogs {
		if err := logs.Clear(); err != nil {
			return nil, err
		}
	}

	defaultsFile := config.FindDefaultsFile(workDir)
	if o.Resume {
		stored, err := logs.Stored(o.StackLevel)
		if err != nil {
			return nil, err
		}
		if err := cmd.Flags().Parse(storedFlags(cmd, stored.Args)); err != nil {
			return nil, fmt.Errorf("failed to parse the stored command %q: %w", stored.Command, err)
		}
		o.Resume = true
		o.OutputDir = stored.OutputDir
		if util.FileExists(stored.DefaultsFile) {
			defaultsFile = stored.DefaultsFile
		}
	}

	defaults, err := config.LoadUserDefaults(defaultsFile)
	if err != nil {
		return nil, err
	}
	if err := defaults.Apply(cmd.Flags(), subcommand); err != nil {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if o.OutputDir == "" {
		if dir := filepath.Dir(o.Output); o.Output != "" && dir != "." {
			o.OutputDir = dir
		} else {
			o.OutputDir = time.Now().Format(constants.OutputDirLayout)
		}
	}
	if !o.Resume {
		if err := logs.LogCommand(util.CommandMessage("bigmler", commandLine(cmd))); err != nil {
			return nil, err
		}
		if err := logs.LogDir(o.OutputDir); err != nil {
			return nil, err
		}
	}
	if _, err := logs.CheckDir(filepath.Join(o.OutputDir, constants.SessionsLog)); err != nil {
		return nil, err
	}

	s, err := session.New(o.OutputDir, o.Verbosity, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}
	s.LogFile = o.ResourcesLog
	if content := defaults.Contents(); content != "" && defaults.Path != s.Path(constants.DefaultsFilename) {
		if err := os.WriteFile(s.Path(constants.DefaultsFilename), []byte(content), 0644); err != nil {
			return nil, err
		}
	}
	s.LogMessage(util.CommandMessage("bigmler", commandLine(cmd))+"\n", false)

	util.SetDebug(o.Debug)
	v := config.NewViper()
	if o.MaxNodes == 0 {
		o.MaxNodes = config.MaxNodes(v)
	}
	client, err := bigml.NewClient(config.LoadConnection(v, o), bigml.WithLogger(s.Logger))
	if err != nil {
		return nil, err
	}

	inputs, err := resources.LoadInputs(o)
	if err != nil {
		return nil, err
	}
	for _, warning := range inputs.Warnings {
		s.LogMessage(fmt.Sprintf("%s\n", aurora.Yellow(warning)), true)
	}

	return &runner{
		options: o,
		session: s,
		client:  client,
		inputs:  inputs,
		manager: resources.NewManager(client, s),
	}, nil
}

// end closes the session and, with --open, shows the last created resource
// in the dashboard.
func (r *runner) end() {
	defer r.session.End()
	if !r.options.Open {
		return
	}
	id := r.session.LastResource()
	if id == "" {
		return
	}
	url := r.manager.URL(id)
	if err := browser.OpenURL(url); err != nil {
		r.session.Logger.Warn("failed to open the dashboard", zap.String("url", url), zap.Error(err))
	}
}

// commandLine rebuilds the arguments of cmd from its parsed flags, to be
// logged for --resume.
func commandLine(cmd *cobra.Command) []string {
	args := strings.Fields(cmd.CommandPath())[1:]
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "resume", "stack-level", "clear-logs":
			return
		}
		switch f.Value.Type() {
		case "bool":
			if f.Value.String() == "true" {
				args = append(args, "--"+f.Name)
			} else {
				args = append(args, fmt.Sprintf("--%s=%s", f.Name, f.Value.String()))
			}
		case "stringArray":
			values, _ := flags.GetStringArray(f.Name)
			for _, value := range values {
				args = append(args, "--"+f.Name, value)
			}
		default:
			args = append(args, "--"+f.Name, f.Value.String())
		}
	})
	return append(args, flags.Args()...)
}

// storedFlags drops the subcommand words of a stored command line.
func storedFlags(cmd *cobra.Command, args []string) []string {
	depth := len(strings.Fields(cmd.CommandPath())) - 1
	if depth > len(args) {
		return nil
	}
	return args[depth:]
}
