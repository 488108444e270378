package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/features/recipe"
	"github.com/RyanBlaney/sonido-features/features/storage"
)

// addRecipeFlags registers the flags that select an extractor: a recipe
// file, or a registered name with its default configuration.
func addRecipeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("recipe", "r", "", "recipe file (.yaml, .yml, .toml, .json)")
	cmd.Flags().StringP("extractor", "e", features.FbankName, "extractor name, used when no recipe is given")
}

// loadExtractor builds the extractor selected by the recipe flags.
func loadExtractor(cmd *cobra.Command, opts ...features.Option) (features.Extractor, error) {
	path, err := cmd.Flags().GetString("recipe")
	if err != nil {
		return nil, fmt.Errorf("failed to read 'recipe' flag: %w", err)
	}

	var r recipe.Recipe
	if path != "" {
		r, err = recipe.Load(path)
		if err != nil {
			return nil, err
		}
	} else {
		name, err := cmd.Flags().GetString("extractor")
		if err != nil {
			return nil, fmt.Errorf("failed to read 'extractor' flag: %w", err)
		}
		r = recipe.Recipe{Extractor: name}
	}

	return r.Build(nil, opts...)
}

// storageTarget splits an output path such as feats/utt1.msgpack into the
// storage directory and key.
func storageTarget(path string) (dir, key string, err error) {
	base := filepath.Base(path)
	key = strings.TrimSuffix(base, storage.Extension)
	if key == "" || key == "." || key == string(filepath.Separator) {
		return "", "", fmt.Errorf("invalid output path %q", path)
	}
	return filepath.Dir(path), key, nil
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}
