package config

// Merge layers configs from lowest to highest precedence. Non-zero fields
// of later layers win; nil layers are skipped. Slices replace rather than
// append.
func Merge(layers ...*Config) *Config {
	result := &Config{}
	for _, l := range layers {
		if l == nil {
			continue
		}
		if l.DerivedData != "" {
			result.DerivedData = l.DerivedData
		}
		if l.Parser != "" {
			result.Parser = l.Parser
		}
		if l.Concurrency != 0 {
			result.Concurrency = l.Concurrency
		}
		if l.IncludeNotes != nil {
			v := *l.IncludeNotes
			result.IncludeNotes = &v
		}
		if l.DefaultScope != "" {
			result.DefaultScope = l.DefaultScope
		}
		if l.OutputFormat != "" {
			result.OutputFormat = l.OutputFormat
		}
		if len(l.ExcludePatterns) > 0 {
			result.ExcludePatterns = l.ExcludePatterns
		}
		if len(l.CustomCategories) > 0 {
			result.CustomCategories = l.CustomCategories
		}
	}
	return result
}

// Resolve loads every config source and merges them in precedence order:
// global file, project file (when projectRoot is set), environment, then
// flags. The result has defaults applied.
func Resolve(projectRoot string, flags *Config) (*Config, error) {
	global, err := LoadGlobal()
	if err != nil {
		return nil, err
	}
	var project *Config
	if projectRoot != "" {
		if project, err = LoadProject(projectRoot); err != nil {
			return nil, err
		}
	}
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	return Merge(global, project, env, flags).WithDefaults(), nil
}
