package config

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Languages: []string{"go", "typescript", "javascript", "python"},
			Exclude: []string{
				"vendor/**",
				"node_modules/**",
				"dist/**",
				"build/**",
				"**/testdata/**",
				".lens/**",
			},
			EmbeddingModel: "all-minilm",
		},
		Context: ContextConfig{
			MaxReferences: 3,
			MaxSymbols:    10,
			MaxFiles:      5,
			ExpandLines:   80,
			MaxReadBytes:  15000,
			BytesPerLine:  80,
			HeadLines:     60,
			TailLines:     40,
			SemanticTopK:  3,
		},
		Prompt: PromptConfig{
			MaxTokens: 20000,
			MaxChars:  80000,
		},
		Model: ModelConfig{
			Endpoint: "http://localhost:11434",
			Name:     "qwen2.5-coder",
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Index = mergeIndexConfig(loaded.Index, defaults.Index)
	result.Context = mergeContextConfig(loaded.Context, defaults.Context)
	result.Prompt = mergePromptConfig(loaded.Prompt, defaults.Prompt)
	result.Model = mergeModelConfig(loaded.Model, defaults.Model)

	return result
}

func mergeIndexConfig(loaded, defaults IndexConfig) IndexConfig {
	result := IndexConfig{}

	if len(loaded.Languages) > 0 {
		result.Languages = loaded.Languages
	} else {
		result.Languages = defaults.Languages
	}

	if len(loaded.Exclude) > 0 {
		result.Exclude = loaded.Exclude
	} else {
		result.Exclude = defaults.Exclude
	}

	if loaded.EmbeddingModel != "" {
		result.EmbeddingModel = loaded.EmbeddingModel
	} else {
		result.EmbeddingModel = defaults.EmbeddingModel
	}

	return result
}

func mergeContextConfig(loaded, defaults ContextConfig) ContextConfig {
	result := ContextConfig{}

	result.MaxReferences = pickInt(loaded.MaxReferences, defaults.MaxReferences)
	result.MaxSymbols = pickInt(loaded.MaxSymbols, defaults.MaxSymbols)
	result.MaxFiles = pickInt(loaded.MaxFiles, defaults.MaxFiles)
	result.ExpandLines = pickInt(loaded.ExpandLines, defaults.ExpandLines)
	result.MaxReadBytes = pickInt(loaded.MaxReadBytes, defaults.MaxReadBytes)
	result.BytesPerLine = pickInt(loaded.BytesPerLine, defaults.BytesPerLine)
	result.HeadLines = pickInt(loaded.HeadLines, defaults.HeadLines)
	result.TailLines = pickInt(loaded.TailLines, defaults.TailLines)
	result.SemanticTopK = pickInt(loaded.SemanticTopK, defaults.SemanticTopK)

	return result
}

func mergePromptConfig(loaded, defaults PromptConfig) PromptConfig {
	result := PromptConfig{}

	result.MaxTokens = pickInt(loaded.MaxTokens, defaults.MaxTokens)
	result.MaxChars = pickInt(loaded.MaxChars, defaults.MaxChars)

	return result
}

func mergeModelConfig(loaded, defaults ModelConfig) ModelConfig {
	result := ModelConfig{}

	if loaded.Endpoint != "" {
		result.Endpoint = loaded.Endpoint
	} else {
		result.Endpoint = defaults.Endpoint
	}

	if loaded.Name != "" {
		result.Name = loaded.Name
	} else {
		result.Name = defaults.Name
	}

	return result
}

// pickInt returns loaded when set (non-zero), the default otherwise.
func pickInt(loaded, def int) int {
	if loaded != 0 {
		return loaded
	}
	return def
}
