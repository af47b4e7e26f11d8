package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bigmler/bigmler/pkg/constants"
	"github.com/iancoleman/strcase"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const MainSection = "BigMLer"

// UserDefaults are the flag values read from a bigmler.ini file, by
// lowercase section and snake_case flag name.
type UserDefaults struct {
	Path     string
	sections map[string]map[string]string
}

// FindDefaultsFile returns the bigmler.ini of the working directory or,
// failing that, of the home directory. It returns "" when there is none.
func FindDefaultsFile(workDir string) string {
	candidates := []string{filepath.Join(workDir, constants.DefaultsFilename)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, constants.DefaultsFilename))
	}
	for _, candidate := range candidates {
		if stat, err := os.Stat(candidate); err == nil && !stat.IsDir() {
			return candidate
		}
	}
	return ""
}

// LoadUserDefaults reads an INI defaults file. A missing file yields empty
// defaults.
func LoadUserDefaults(path string) (*UserDefaults, error) {
	defaults := &UserDefaults{Path: path, sections: map[string]map[string]string{}}
	if path == "" {
		return defaults, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read defaults file %s: %w", path, err)
	}

	for _, key := range v.AllKeys() {
		dot := strings.LastIndex(key, ".")
		if dot < 0 {
			continue
		}
		section := strings.ToLower(key[:dot])
		if defaults.sections[section] == nil {
			defaults.sections[section] = map[string]string{}
		}
		defaults.sections[section][strings.ToLower(key[dot+1:])] = v.GetString(key)
	}

	return defaults, nil
}

// Get returns the default of a flag in a section.
func (d *UserDefaults) Get(section string, flag string) (string, bool) {
	values, ok := d.sections[strings.ToLower(section)]
	if !ok {
		return "", false
	}
	value, ok := values[strcase.ToSnake(flag)]
	return value, ok
}

// SectionName is the defaults section of a subcommand.
func SectionName(subcommand string) string {
	if subcommand == "" || subcommand == "main" {
		return MainSection
	}
	return fmt.Sprintf("%s %s", MainSection, subcommand)
}

// Apply sets the flags that were not given in the command line to their
// default values. The main section applies first and the subcommand section
// overrides it.
func (d *UserDefaults) Apply(flags *pflag.FlagSet, subcommand string) error {
	sections := []string{MainSection}
	if section := SectionName(subcommand); section != MainSection {
		sections = append(sections, section)
	}

	var applyErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if applyErr != nil || flag.Changed {
			return
		}
		for _, section := range sections {
			value, ok := d.Get(section, flag.Name)
			if !ok {
				continue
			}
			if err := flag.Value.Set(value); err != nil {
				applyErr = fmt.Errorf("invalid default for %s in [%s]: %w", flag.Name, section, err)
				return
			}
		}
	})
	return applyErr
}

// Contents returns the raw defaults file, for session logs.
func (d *UserDefaults) Contents() string {
	if d.Path == "" {
		return ""
	}
	content, err := os.ReadFile(d.Path)
	if err != nil {
		return ""
	}
	return string(content)
}
